// Package client implements a client for querying data from the train API service.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danilovkiri/dk-go-trainqueue/internal/config"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const requestTimeout = 5 * time.Second

// Client defines attributes of a struct available to its methods.
type Client struct {
	client   *resty.Client
	uiConfig *config.UIConfig
	log      *zerolog.Logger
}

// InitClient initializes a resty client for the train API service.
func InitClient(uiConfig *config.UIConfig, log *zerolog.Logger) *Client {
	apiClient := resty.New().SetTimeout(requestTimeout)
	log.Info().Msg("train API service client initialized")
	return &Client{client: apiClient, uiConfig: uiConfig, log: log}
}

// GetQueueStatus retrieves the current queue state from the API service.
func (c *Client) GetQueueStatus(ctx context.Context) (*modeldto.QueueStatus, error) {
	response, err := c.client.R().SetContext(ctx).Get(c.uiConfig.APIAddress + "/api/v1/queue/status")
	if err != nil {
		c.log.Err(err).Msg("queue status retrieval from API service failed")
		return nil, err
	}
	if response.StatusCode() != 200 {
		return nil, fmt.Errorf("queue status retrieval returned status %d", response.StatusCode())
	}
	var status modeldto.QueueStatus
	err = json.Unmarshal(response.Body(), &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// GetTrainStatus retrieves the current device state from the API service.
func (c *Client) GetTrainStatus(ctx context.Context) (*modeldto.DeviceStatus, error) {
	response, err := c.client.R().SetContext(ctx).Get(c.uiConfig.APIAddress + "/api/v1/train/status")
	if err != nil {
		c.log.Err(err).Msg("train status retrieval from API service failed")
		return nil, err
	}
	if response.StatusCode() != 200 {
		return nil, fmt.Errorf("train status retrieval returned status %d", response.StatusCode())
	}
	var status modeldto.DeviceStatus
	err = json.Unmarshal(response.Body(), &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}
