package storage

import (
	"time"

	"github.com/retainmd/retain/internal/domain"
)

// coerceParams normalizes engine values into SQLite's primitive type set
// before binding: booleans become 0/1, times become epoch milliseconds, nil
// pointers become NULL. Anything outside the known set is rejected rather
// than bound through reflection.
func coerceParams(params []any) ([]any, error) {
	out := make([]any, len(params))
	for i, p := range params {
		v, err := coerceParam(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func coerceParam(p any) (any, error) {
	switch v := p.(type) {
	case nil:
		return nil, nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case time.Time:
		return v.UnixMilli(), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return v.UnixMilli(), nil
	case *int64:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case domain.Priority:
		return int64(v), nil
	case domain.State:
		return int64(v), nil
	case domain.Grade:
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64, float64, string, []byte:
		return v, nil
	default:
		return nil, domain.Validationf("cannot bind parameter of type %T", p)
	}
}
