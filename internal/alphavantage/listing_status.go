package alphavantage

import (
	"context"
	"net/url"

	log "github.com/sirupsen/logrus"
)

// GetListingStatus fetches the LISTING_STATUS csv. state is "active" or "delisted".
// Expected columns: symbol,name,exchange,assetType,ipoDate,delistingDate,status
func (c *Client) GetListingStatus(ctx context.Context, state string) ([]byte, error) {
	log.Debugf("GetListingStatus begins (from Alphavantage)")
	params := url.Values{}
	params.Set("function", "LISTING_STATUS")
	params.Set("state", state)

	body, err := c.fetch(ctx, "listing_status", params)
	if err != nil {
		return nil, err
	}
	log.Debug("GetListingStatus ends (from AV)")
	return body, nil
}
