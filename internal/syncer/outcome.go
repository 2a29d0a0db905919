package syncer

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Outcome classifies the result of one remote operation. SchemaMissing is
// the "relation does not exist" case: terminal, the record stops retrying.
type Outcome int

const (
	Ok Outcome = iota
	NotFound
	SchemaMissing
	TransientNetworkError
	OtherError
)

func (o Outcome) String() string {
	switch o {
	case Ok:
		return "ok"
	case NotFound:
		return "not_found"
	case SchemaMissing:
		return "schema_missing"
	case TransientNetworkError:
		return "transient_network_error"
	default:
		return "other_error"
	}
}

const mysqlErrNoSuchTable = 1146

func Classify(err error) Outcome {
	if err == nil {
		return Ok
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlErrNoSuchTable {
		return SchemaMissing
	}
	// sqlite wording, seen through the pure-Go driver used in tests
	if strings.Contains(err.Error(), "no such table") {
		return SchemaMissing
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return TransientNetworkError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return TransientNetworkError
	}

	return OtherError
}
