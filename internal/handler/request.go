package handler

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

const maxBodySize = 1 << 20

// requestError reports a request that could not be parsed.
type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *requestError) Unwrap() error { return e.err }

func badRequest(msg string, err error) error {
	return &requestError{msg: msg, err: err}
}

// decodeObject reads the request body as a JSON object and passes every
// field to fn. Unknown fields must be skipped by fn.
func decodeObject(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return badRequest("read body", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return badRequest("empty body", nil)
	}
	if err := jx.DecodeBytes(data).Obj(fn); err != nil {
		return badRequest("malformed body", err)
	}
	return nil
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = s
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = n.String()
	default:
		return decimal.Decimal{}, errors.New("expected number")
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "parse decimal")
	}
	return v, nil
}

func decodeInts(d *jx.Decoder) ([]int, error) {
	var out []int
	err := d.Arr(func(d *jx.Decoder) error {
		v, err := d.Int()
		out = append(out, v)
		return err
	})
	return out, err
}

// pathInt parses the integer path wildcard name.
func pathInt(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("invalid "+name+" "+strconv.Quote(raw), nil)
	}
	return v, nil
}
