// Package main runs a demo client: it fires one optimization and then streams
// completion events over the websocket feed.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Connect to the stream first so the completion event is not missed.
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/events/stream"}
	hdr := http.Header{}
	hdr.Set("X-Owner-Id", "demo")
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	body := []byte(`{
		"origin": {"lat": 40.7128, "lng": -74.0060},
		"destinations": [
			{"id": "d1", "location": {"lat": 40.7589, "lng": -73.9851}},
			{"id": "d2", "location": {"lat": 40.6892, "lng": -74.0445}},
			{"id": "d3", "location": {"lat": 40.7306, "lng": -73.9866}}
		],
		"vehicle": {"id": "v1", "capacityKg": 1200, "fuelType": "diesel", "currentLocation": {"lat": 40.7128, "lng": -74.0060}},
		"realTimeFactors": {"timeFactors": true}
	}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/optimize", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-Id", "demo")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var optResp struct {
		RequestID string `json:"requestId"`
		Summary   struct {
			TotalDistanceKm float64 `json:"totalDistanceKm"`
			TotalCost       float64 `json:"totalCost"`
		} `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&optResp); err != nil {
		log.Fatal(err)
	}
	log.Printf("request %s: %.1f km, cost %.2f", optResp.RequestID, optResp.Summary.TotalDistanceKm, optResp.Summary.TotalCost)

	_ = c.SetReadDeadline(time.Now().Add(15 * time.Second))
	for {
		var evt struct {
			Type string         `json:"type"`
			Data map[string]any `json:"data"`
		}
		if err := c.ReadJSON(&evt); err != nil {
			log.Printf("stream closed: %v", err)
			return
		}
		log.Printf("event %s: %v", evt.Type, evt.Data)
		if evt.Type == "route.optimization.completed" {
			return
		}
	}
}
