package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex fee_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	once         sync.Once
)

func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateShortIDWithPrefix returns a short ID with a prefix.
// Total length is capped at 12 characters, e.g., `IN-XYZ12A8Q`.
func GenerateShortIDWithPrefix(prefix string) string {
	once.Do(initializeSID)

	id, err := sidGenerator.Generate()
	if err != nil {
		return ""
	}
	id = strings.ReplaceAll(id, "-", "")

	availableLen := 12 - len(prefix)
	if availableLen <= 0 {
		return ""
	}

	if len(id) > availableLen {
		id = id[:availableLen]
	}

	return strings.ToUpper(fmt.Sprintf("%s%s", prefix, id))
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_EVENT              = "event"
	UUID_PREFIX_BILLABLE_METRIC    = "bm"
	UUID_PREFIX_CHARGE             = "charge"
	UUID_PREFIX_CHARGE_FILTER      = "cf"
	UUID_PREFIX_PLAN               = "plan"
	UUID_PREFIX_FEE                = "fee"
	UUID_PREFIX_ADJUSTED_FEE       = "adj_fee"
	UUID_PREFIX_INVOICE            = "inv"
	UUID_PREFIX_SUBSCRIPTION       = "subs"
	UUID_PREFIX_CUSTOMER           = "cust"
	UUID_PREFIX_BILLING_ENTITY     = "be"
	UUID_PREFIX_TAX_RATE           = "tax"
	UUID_PREFIX_APPLIED_TAX        = "tax_app"
	UUID_PREFIX_WALLET             = "wallet"
	UUID_PREFIX_WALLET_TRANSACTION = "wtxn"
	UUID_PREFIX_USAGE_SNAPSHOT     = "usnap"
	UUID_PREFIX_WEBHOOK_EVENT      = "webhook"
)
