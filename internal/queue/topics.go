package queue

// Topic/group names, grounded in original_source's redis_cfg.rs
// (messages_stream/db_group, receipts_stream/receipts_group).
const (
	TopicMessages = "messages_stream"
	GroupMessages = "db_group"

	TopicReceipts = "receipts_stream"
	GroupReceipts = "receipts_group"

	ConsumerSingleton = "worker-1"
)
