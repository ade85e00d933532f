package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/clients"
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

const userAgent = "svc-tours"

// Gateway holds the clients for the services reached through the gateway.
type Gateway struct {
	Payments     PaymentsClient
	Receipts     ReceiptsClient
	Spreadsheets SpreadsheetsClient
	Files        FilesClient
}

func NewGateway(addr string) (Gateway, error) {
	c, err := clients.NewClients(addr, tagRequest)
	if err != nil {
		return Gateway{}, fmt.Errorf("creating gateway client for %s: %w", addr, err)
	}

	return Gateway{
		Payments:     NewPaymentsClient(c),
		Receipts:     NewReceiptsClient(c),
		Spreadsheets: NewSpreadsheetsClient(c),
		Files:        NewFilesClient(c),
	}, nil
}

// tagRequest carries the correlation ID of the booking, webhook or command being handled.
func tagRequest(ctx context.Context, req *http.Request) error {
	req.Header.Set("Correlation-ID", log.CorrelationIDFromContext(ctx))
	req.Header.Set("User-Agent", userAgent)
	return nil
}
