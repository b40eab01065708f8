package training

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// referenceResponse 参考数据 API 的响应包裹
type referenceResponse struct {
	Status int             `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

// ReferenceClient 第三方参考睡眠数据 API 客户端
type ReferenceClient struct {
	httpClient *resty.Client
	appID      string
	secretKey  string
	logger     *zap.Logger
}

// NewReferenceClient 创建参考数据客户端
func NewReferenceClient(baseURL, appID, secretKey string, logger *zap.Logger) *ReferenceClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ReferenceClient{
		httpClient: client,
		appID:      appID,
		secretKey:  secretKey,
		logger:     logger,
	}
}

// FetchSleepRecords 拉取全部参考睡眠记录
func (c *ReferenceClient) FetchSleepRecords(ctx context.Context) ([]ReferenceRecord, error) {
	c.logger.Info("fetching reference sleep records")

	var response referenceResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-App-Id", c.appID).
		SetHeader("X-Secret-Key", c.secretKey).
		SetResult(&response).
		Get("/v1/sleep/records")

	if err != nil {
		c.logger.Error("reference API call failed", zap.Error(err))
		return nil, fmt.Errorf("failed to call reference API: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reference API returned status %d", resp.StatusCode())
	}
	if response.Status != 0 {
		return nil, fmt.Errorf("reference API error: status=%d msg=%s", response.Status, response.Msg)
	}

	var records []ReferenceRecord
	if err := json.Unmarshal(response.Data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse reference records: %w", err)
	}

	c.logger.Info("reference sleep records fetched", zap.Int("count", len(records)))
	return records, nil
}
