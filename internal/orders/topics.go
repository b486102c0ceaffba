package orders

const (
	TopicOrderSubmitted = "order.submitted"
	TopicOrderConfirmed = "order.confirmed"
	TopicOrderRejected  = "order.rejected"
	TopicDeadLetter     = "order.deadletter"
)

// Partition key = order id so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
