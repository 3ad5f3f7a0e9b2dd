package writepath

import (
	"time"

	"github.com/google/uuid"
	"github.com/webitel/im-delivery-service/internal/domain/model"
)

func stampEnvelope(source model.Principal, mbox, text string, replyTo *string) model.Message {
	return model.Message{
		ID:      uuid.New().String(),
		Source:  source,
		Mbox:    mbox,
		Text:    text,
		ReplyTo: replyTo,
		Created: time.Now().UnixMilli(),
	}
}

func containsPrincipal(participants []model.Participant, principal model.Principal) bool {
	for _, p := range participants {
		if p.Principal == principal {
			return true
		}
	}
	return false
}

func dedupeWithCreator(creator model.Principal, others []model.Principal) []model.Principal {
	seen := map[model.Principal]struct{}{creator: {}}
	out := []model.Principal{creator}
	for _, p := range others {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
