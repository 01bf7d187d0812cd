package models

import "encoding/json"

// Plan - снимок документа совместного плана.
// Date, Time и Location хранятся как сырой JSON: это может быть строка, timestamp, объект с координатами или null.
type Plan struct {
	PlanID               string          `json:"planId"`
	HostID               string          `json:"hostId"`
	HostName             string          `json:"hostName,omitempty"`
	Title                string          `json:"title"`
	AcceptedParticipants []string        `json:"acceptedParticipants"`
	Date                 json.RawMessage `json:"date,omitempty"`
	Time                 json.RawMessage `json:"time,omitempty"`
	Location             json.RawMessage `json:"location,omitempty"`
	DateIsPoll           bool            `json:"dateIsPoll"`
	TimeIsPoll           bool            `json:"timeIsPoll"`
	LocationIsPoll       bool            `json:"locationIsPoll"`
}

// Guests - принятые участники без хоста, в исходном порядке и без повторов
func (p *Plan) Guests() []string {
	guests := make([]string, 0, len(p.AcceptedParticipants))
	seen := make(map[string]struct{}, len(p.AcceptedParticipants))
	for _, id := range p.AcceptedParticipants {
		if id == "" || id == p.HostID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		guests = append(guests, id)
	}
	return guests
}
