package binance

import (
	"context"
	"errors"
	"fmt"
	"net"

	"cryptocollector/internal/model"

	"github.com/adshao/go-binance/v2/common"
)

// Binance API error codes that matter for the retry decision. See the
// exchange's error code documentation.
const (
	codeUnknown         = -1000 // internal error, 5xx
	codeDisconnected    = -1001 // backend disconnected, 5xx
	codeTooManyRequests = -1003
	codeServerBusy      = -1008
	codeTooManyOrders   = -1015
	codeServiceShutdown = -1016
)

// classify maps a raw exchange client error onto the gateway taxonomy.
// API-level rejections default to permanent: the exchange understood the
// request and refused it, so repeating it verbatim cannot help. Two
// exceptions: rate-limit rejections, and server-side failure codes the
// exchange returns on 5xx responses, which a later attempt may outlive.
// Anything that never reached the exchange (timeouts, resets, DNS) is
// transient.
func classify(symbol string, err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case codeTooManyRequests, codeTooManyOrders:
			return &model.GatewayError{Kind: model.KindRateLimit, Symbol: symbol, Err: err}
		case codeUnknown, codeDisconnected, codeServerBusy, codeServiceShutdown:
			return &model.GatewayError{Kind: model.KindTransient, Symbol: symbol, Err: err}
		}
		// Invalid symbol, bad credentials and every other rejection.
		return &model.GatewayError{Kind: model.KindPermanent, Symbol: symbol, Err: err}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &model.GatewayError{Kind: model.KindTransient, Symbol: symbol, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &model.GatewayError{Kind: model.KindTransient, Symbol: symbol, Err: err}
	}

	// Connection resets, EOF and other transport faults land here.
	return &model.GatewayError{Kind: model.KindTransient, Symbol: symbol, Err: err}
}

func permanent(symbol, format string, args ...any) error {
	return &model.GatewayError{
		Kind:   model.KindPermanent,
		Symbol: symbol,
		Err:    fmt.Errorf(format, args...),
	}
}
