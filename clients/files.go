package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/clients"
	"github.com/ThreeDotsLabs/go-event-driven/common/clients/files"
	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"tours/entity"
)

const voucherFileTemplate = `<html><body>
Booking ID: %s
Tour ID: %s
Travellers: %d
From: %s
To: %s
Paid: %s %s
</body></html>`

type FilesClient struct {
	client files.ClientWithResponsesInterface
}

func NewFilesClient(c *clients.Clients) FilesClient {
	return FilesClient{
		client: c.Files,
	}
}

// GenerateVoucher uploads the booking voucher and returns its file ID.
// The file ID is derived from the booking, so a second upload finds the first one.
func (c FilesClient) GenerateVoucher(ctx context.Context, v entity.Voucher) (string, error) {
	fileID := fmt.Sprintf("%s-voucher.html", v.BookingID)
	fileContent := fmt.Sprintf(voucherFileTemplate,
		v.BookingID,
		v.TourID,
		v.People,
		v.StartDate.Format("2006-01-02"),
		v.EndDate.Format("2006-01-02"),
		v.Amount.Amount.StringFixed(2),
		v.Amount.Currency,
	)

	res, err := c.client.PutFilesFileIdContentWithTextBodyWithResponse(ctx, fileID, fileContent)
	if err != nil {
		return "", fmt.Errorf("put file request: %w", err)
	}

	if res.StatusCode() == http.StatusConflict {
		log.FromContext(ctx).Infof("file %s already exists", fileID)
		return fileID, nil
	}

	if res.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", res.StatusCode())
	}

	return fileID, nil
}
