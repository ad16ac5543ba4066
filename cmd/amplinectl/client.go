package main

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

func newClient() *resty.Client {
	return resty.New().
		SetBaseURL(apiFlag).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")
}

func doGet(path string, query map[string]string) (string, error) {
	resp, err := newClient().R().SetQueryParams(query).Get(path)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.String(), nil
}

func doPost(path string, body interface{}) (string, error) {
	resp, err := newClient().R().SetBody(body).Post(path)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.String(), nil
}
