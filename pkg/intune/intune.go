// Package intune lists managed devices from the Microsoft Graph API.
package intune

import (
	"fmt"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/mfatouaki/patchscope/internal/utils"
	"github.com/mfatouaki/patchscope/pkg/compliance"
	"github.com/mfatouaki/patchscope/pkg/whttp"
)

const (
	loginEndpoint   = "https://login.microsoftonline.com"
	graphEndpoint   = "https://graph.microsoft.com/v1.0"
	managedDevices  = graphEndpoint + "/deviceManagement/managedDevices"
	tokenScope      = "https://graph.microsoft.com/.default"
	syncTimeLayout  = time.RFC3339
	maxPageFailures = 3
)

// Client talks to Graph with an app-only token.
type Client struct {
	token string
	http  *retryablehttp.Client
}

// NewClient exchanges client credentials for an access token.
func NewClient(tenantID, clientID, clientSecret string, httpClient *retryablehttp.Client) (*Client, error) {
	if tenantID == "" || clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("intune: tenantid, clientid and clientsecret are all required")
	}

	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("scope", tokenScope)
	form.Set("grant_type", "client_credentials")

	res, err := whttp.Send(&whttp.Request{
		Method:   "POST",
		URL:      loginEndpoint + "/" + tenantID + "/oauth2/v2.0/token",
		FormBody: form,
	}, httpClient)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("token request failed with status %d: %s",
			res.StatusCode, gjson.Get(res.Body, "error_description").Str)
	}

	token := gjson.Get(res.Body, "access_token").Str
	if token == "" {
		return nil, fmt.Errorf("token response carried no access_token")
	}
	return &Client{token: token, http: httpClient}, nil
}

// ListManagedDevices pages through the whole device inventory, following
// @odata.nextLink until exhausted.
func (c *Client) ListManagedDevices() ([]compliance.Device, error) {
	var devices []compliance.Device
	currentURL := managedDevices + "?$top=1000"
	failures := 0

	for currentURL != "" {
		res, err := whttp.Send(&whttp.Request{
			Method:  "GET",
			URL:     currentURL,
			Headers: []whttp.Header{{Name: "Authorization", Value: "Bearer " + c.token}},
		}, c.http)
		if err != nil {
			failures++
			if failures >= maxPageFailures {
				return nil, fmt.Errorf("listing managed devices: %w", err)
			}
			utils.Log.Warn("device page request failed, retrying: ", err)
			time.Sleep(2 * time.Second)
			continue
		}
		if res.StatusCode != 200 {
			return nil, fmt.Errorf("listing managed devices failed with status %d", res.StatusCode)
		}

		for _, raw := range gjson.Get(res.Body, "value").Array() {
			devices = append(devices, parseDevice(raw))
		}

		currentURL = gjson.Get(res.Body, `\@odata\.nextLink`).Str
		failures = 0
	}

	utils.Log.Infof("fetched %d managed devices", len(devices))
	return devices, nil
}

func parseDevice(raw gjson.Result) compliance.Device {
	d := compliance.Device{
		ID:                raw.Get("id").Str,
		DeviceName:        raw.Get("deviceName").Str,
		UserPrincipalName: raw.Get("userPrincipalName").Str,
		OperatingSystem:   raw.Get("operatingSystem").Str,
		Model:             raw.Get("model").Str,
		JoinType:          raw.Get("joinType").Str,
		OSVersion:         raw.Get("osVersion").Str,
		TotalStorageBytes: raw.Get("totalStorageSpaceInBytes").Int(),
		FreeStorageBytes:  raw.Get("freeStorageSpaceInBytes").Int(),
	}
	if ts := raw.Get("lastSyncDateTime").Str; ts != "" {
		if t, err := time.Parse(syncTimeLayout, ts); err == nil {
			d.LastSync = t
		} else {
			utils.Log.Debugf("device %q: bad lastSyncDateTime %s", d.DeviceName, ts)
		}
	}
	return d
}
