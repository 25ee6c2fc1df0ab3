package transaction

import (
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	outputSuccess = "Success"
	outputError   = "Error"
)

var (
	nilValue = msgpack.RawMessage{0xc0}
)

// TxnCall is a method invocation submitted to a runtime
type TxnCall struct {
	Method string             `msgpack:"method"`
	Args   msgpack.RawMessage `msgpack:"args"`
}

// NewTxnCall encodes args into a call for method
func NewTxnCall(method string, args interface{}) (*TxnCall, error) {
	raw, err := msgpack.Marshal(args)
	if err != nil {
		return nil, err
	}

	return &TxnCall{Method: method, Args: raw}, nil
}

func (c *TxnCall) Marshal() ([]byte, error) {
	return msgpack.Marshal(c)
}

func DecodeCall(b []byte) (*TxnCall, error) {
	c := &TxnCall{}
	if err := msgpack.Unmarshal(b, c); err != nil {
		return nil, err
	}

	if c.Method == "" {
		return nil, errors.New("call has no method")
	}

	return c, nil
}

// TxnOutput is either a Success or a Failure
type TxnOutput interface {
	isTxnOutput()
}

// Success carries the encoded return value of a call
type Success struct {
	Value msgpack.RawMessage
}

// Failure carries the error message of a rejected call
type Failure struct {
	Message string
}

func (*Success) isTxnOutput() {}
func (*Failure) isTxnOutput() {}

// NewSuccess encodes v as a successful output
func NewSuccess(v interface{}) (*Success, error) {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}

	return &Success{Value: raw}, nil
}

// EncodeOutput writes the output as a single entry map keyed by variant
func EncodeOutput(o TxnOutput) ([]byte, error) {
	var env map[string]interface{}

	switch out := o.(type) {
	case *Success:
		v := out.Value
		if len(v) == 0 {
			v = nilValue
		}
		env = map[string]interface{}{outputSuccess: v}
	case *Failure:
		env = map[string]interface{}{outputError: out.Message}
	default:
		return nil, errors.Errorf("unknown output type %T", o)
	}

	return msgpack.Marshal(env)
}

// DecodeOutput parses an encoded output envelope
func DecodeOutput(b []byte) (TxnOutput, error) {
	var env map[string]msgpack.RawMessage
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return nil, err
	}

	if len(env) != 1 {
		return nil, errors.Errorf("output envelope must have exactly one variant, got %d", len(env))
	}

	for k, v := range env {
		switch k {
		case outputSuccess:
			return &Success{Value: v}, nil
		case outputError:
			var msg string
			if err := msgpack.Unmarshal(v, &msg); err != nil {
				return nil, err
			}
			return &Failure{Message: msg}, nil
		default:
			return nil, errors.Errorf("unknown output variant %q", k)
		}
	}

	return nil, errors.New("unreachable")
}
