package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// BankClient resolves the opaque bank-detail token for a seller from the
// accounts service. Implements ledger.BankInfoProvider. An empty token means
// the seller has no bank details on file yet.
type BankClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewBankClientFromEnv() *BankClient {
	return &BankClient{
		baseURL: os.Getenv("ACCOUNTS_API_URL"),
		apiKey:  os.Getenv("ACCOUNTS_API_KEY"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *BankClient) Get(sellerOrgID uint) (string, error) {
	payload, _ := json.Marshal(map[string]any{"seller_org_id": sellerOrgID})

	req, err := http.NewRequest(http.MethodPost, b.baseURL+"/internal/bank-info/token", bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("accounts service returned %d", resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode error: %v", err)
	}
	return out.Token, nil
}
