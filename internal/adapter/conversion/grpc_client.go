package conversion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// ConvertMethod is the full gRPC method name of the remote conversion call.
const ConvertMethod = "/currency.v1.CurrencyConversionService/Convert"

const defaultTimeout = 3 * time.Second

// GRPCConverter calls the remote conversion service once per request.
// There are no retries; any failure surfaces as CUR_002.
type GRPCConverter struct {
	conn    *grpc.ClientConn
	timeout time.Duration
	log     zerolog.Logger
}

// NewGRPCConverter creates a lazily-connecting client for target.
// Extra dial options are appended after the plaintext transport credentials.
func NewGRPCConverter(target string, timeout time.Duration, log zerolog.Logger, opts ...grpc.DialOption) (*GRPCConverter, error) {
	if target == "" {
		return nil, fmt.Errorf("conversion target is empty")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("create conversion client: %w", err)
	}

	return &GRPCConverter{
		conn:    conn,
		timeout: timeout,
		log:     log.With().Str("component", "conversion").Str("target", target).Logger(),
	}, nil
}

// Convert converts amount from one currency to another.
func (c *GRPCConverter) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	from, to = domain.NormalizeCurrency(from), domain.NormalizeCurrency(to)
	if from == to {
		return amount, nil
	}

	req, err := structpb.NewStruct(map[string]interface{}{
		"from_currency": from,
		"to_currency":   to,
		"amount":        amount.String(),
	})
	if err != nil {
		return decimal.Zero, apperror.ErrConversionUnavailable(fmt.Errorf("build request: %w", err))
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(callCtx, ConvertMethod, req, resp); err != nil {
		c.log.Warn().Err(err).
			Str("from", from).
			Str("to", to).
			Dur("elapsed", time.Since(start)).
			Msg("conversion call failed")
		return decimal.Zero, apperror.ErrConversionUnavailable(err)
	}

	converted, err := parseConverted(resp)
	if err != nil {
		return decimal.Zero, apperror.ErrConversionUnavailable(err)
	}

	c.log.Debug().
		Str("from", from).
		Str("to", to).
		Str("amount", amount.String()).
		Str("converted", converted.String()).
		Dur("elapsed", time.Since(start)).
		Msg("amount converted")

	return converted, nil
}

// Close releases the underlying connection.
func (c *GRPCConverter) Close() error {
	return c.conn.Close()
}

func parseConverted(resp *structpb.Struct) (decimal.Decimal, error) {
	field, ok := resp.GetFields()["converted_amount"]
	if !ok {
		return decimal.Zero, fmt.Errorf("response has no converted_amount")
	}

	var (
		value decimal.Decimal
		err   error
	)
	switch kind := field.GetKind().(type) {
	case *structpb.Value_StringValue:
		value, err = decimal.NewFromString(strings.TrimSpace(kind.StringValue))
	case *structpb.Value_NumberValue:
		value = decimal.NewFromFloat(kind.NumberValue)
	default:
		return decimal.Zero, fmt.Errorf("converted_amount has unexpected type %T", kind)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse converted_amount: %w", err)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("converted_amount is negative: %s", value)
	}

	return value.Round(domain.AmountScale), nil
}
