package engine

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/vecstore/vector"
	sqlite "modernc.org/sqlite"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterVectorFunctions registers vec_dim with the sqlite driver so it is
// available on connections opened after this call. Existing open connections
// will not see it. Calling it more than once is safe.
//
//	vec_dim(blob) -> INTEGER element count, NULL for NULL input
func RegisterVectorFunctions() error {
	registerOnce.Do(func() {
		err := sqlite.RegisterDeterministicScalarFunction("vec_dim", 1, vecDimImpl)
		if err != nil && !strings.Contains(err.Error(), "already registered") {
			registerErr = err
		}
	})
	return registerErr
}

func vecDimImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("vec_dim: expected 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case []byte:
		n := vector.Dimension(v)
		if n < 0 {
			return nil, fmt.Errorf("vec_dim: invalid vector blob length %d", len(v))
		}
		return int64(n), nil
	default:
		return nil, fmt.Errorf("vec_dim: unsupported argument type %T; want BLOB", args[0])
	}
}
