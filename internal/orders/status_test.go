package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusPending, StatusRejected},
		{StatusConfirmed, StatusShipped},
		{StatusConfirmed, StatusCancelled},
		{StatusShipped, StatusDelivered},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s should be legal", tr[0], tr[1])
	}

	denied := [][2]Status{
		{StatusShipped, StatusConfirmed}, // no regression
		{StatusShipped, StatusCancelled},
		{StatusDelivered, StatusCancelled},
		{StatusDelivered, StatusShipped},
		{StatusPending, StatusShipped},
		{StatusPending, StatusDelivered},
		{StatusCancelled, StatusConfirmed},
		{StatusRejected, StatusConfirmed},
		{StatusConfirmed, StatusConfirmed},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s should be illegal", tr[0], tr[1])
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusDelivered))
	assert.False(t, ValidStatus(Status("PAID")))
	assert.False(t, ValidStatus(Status("")))
}
