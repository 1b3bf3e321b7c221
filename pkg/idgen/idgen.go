package idgen

import (
	"fmt"
	"log"

	"github.com/bwmarrin/snowflake"
)

var node *snowflake.Node

// Init must run once per process before any reference is generated.
func Init(workerID int64) {
	n, err := snowflake.NewNode(workerID)
	if err != nil {
		log.Fatalf("init snowflake node: %v", err)
	}
	node = n
}

// PaymentRef returns the external payment reference exposed to clients,
// e.g. PAY-1823661278349824.
func PaymentRef() string {
	return fmt.Sprintf("PAY-%d", node.Generate().Int64())
}

// RefundRef returns the external refund reference.
func RefundRef() string {
	return fmt.Sprintf("REF-%d", node.Generate().Int64())
}
