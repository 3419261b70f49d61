package restaurant

import "strconv"

const (
	TopicOrderPlaced  = "order.placed"
	TopicOrderUpdated = "order.updated"
	TopicOrderDeleted = "order.deleted"
)

var OrderTopics = []string{TopicOrderPlaced, TopicOrderUpdated, TopicOrderDeleted}

// Partition key = order id so every event of one order stays ordered.
func PartitionKey(orderID int64) []byte { return []byte(strconv.FormatInt(orderID, 10)) }
