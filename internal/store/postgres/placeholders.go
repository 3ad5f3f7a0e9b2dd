package postgres

import "strconv"

// placeholders renders a Postgres bind-variable tuple like "($1, $2, $3)"
// for the given 1-based positions, used to build multi-row VALUES lists.
func placeholders(positions ...int) string {
	out := "("
	for i, p := range positions {
		if i > 0 {
			out += ", "
		}
		out += "$" + strconv.Itoa(p)
	}
	return out + ")"
}
