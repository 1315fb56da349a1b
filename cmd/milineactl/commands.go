package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-resty/resty/v2"
)

func client(apiURL string) *resty.Client {
	return resty.New().SetBaseURL(apiURL)
}

func printBody(out io.Writer, resp *resty.Response) error {
	if resp.IsError() {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	_, err := fmt.Fprintln(out, resp.String())
	return err
}

func runChat(apiURL, message, sessionID string, out io.Writer) error {
	if message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	payload := map[string]interface{}{"message": message}
	if sessionID != "" {
		payload["session_id"] = sessionID
	}
	resp, err := client(apiURL).R().SetBody(payload).Post("/chat")
	if err != nil {
		return err
	}
	return printBody(out, resp)
}

func runFastest(apiURL string, oLng, oLat, dLng, dLat, threshold float64, out io.Writer) error {
	payload := map[string]interface{}{
		"origin":      map[string]float64{"lng": oLng, "lat": oLat},
		"destination": map[string]float64{"lng": dLng, "lat": dLat},
	}
	if threshold > 0 {
		payload["threshold_m"] = threshold
	}
	resp, err := client(apiURL).R().SetBody(payload).Post("/routes/fastest")
	if err != nil {
		return err
	}
	return printBody(out, resp)
}

func runUnresolved(apiURL string, minHits int, out io.Writer) error {
	resp, err := client(apiURL).R().
		SetQueryParam("min_hits", strconv.Itoa(minHits)).
		Get("/admin/unresolved")
	if err != nil {
		return err
	}
	return printBody(out, resp)
}
