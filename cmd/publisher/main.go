package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type positionMessage struct {
	CourierID string  `json:"courier_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Speed     float64 `json:"speed"`
	Timestamp int64   `json:"timestamp"`
}

// Simulated couriers drift around downtown Yangon.
const (
	baseLat = 16.8661
	baseLon = 96.1951
)

func randomCourierID() string {
	return fmt.Sprintf("CR-%03d", rand.Intn(1000))
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("dispatch-mock-publisher")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	courierPool := make([]string, 5)
	for i := range courierPool {
		courierPool[i] = randomCourierID()
	}

	log.Printf("connected to %s, publishing every %ds...", broker, intervalSec)
	log.Printf("courier pool: %v", courierPool)

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		cid := courierPool[rand.Intn(len(courierPool))]

		// ~70% of fixes come from couriers on the move.
		speed := rand.Float64() * 0.4
		if rand.Float64() < 0.7 {
			speed = 1 + rand.Float64()*9
		}

		msg := positionMessage{
			CourierID: cid,
			Latitude:  baseLat + (rand.Float64()-0.5)*0.02, // ~2km drift
			Longitude: baseLon + (rand.Float64()-0.5)*0.02,
			Accuracy:  3 + rand.Float64()*27,
			Speed:     speed,
			Timestamp: time.Now().Unix(),
		}

		payload, _ := json.Marshal(msg)
		topic := fmt.Sprintf("/couriers/%s/position", cid)

		token := client.Publish(topic, 1, false, payload)
		token.Wait()

		log.Printf("published to %s: %s", topic, payload)
	}
}
