package services

import (
	"bytes"
	"encoding/json"

	"socialpush/models"
)

// PollableField - поле плана, которое хост либо фиксирует, либо открывает для голосования
type PollableField int

const (
	FieldDate PollableField = iota
	FieldTime
	FieldLocation
)

func (f PollableField) String() string {
	switch f {
	case FieldDate:
		return "date"
	case FieldTime:
		return "time"
	case FieldLocation:
		return "location"
	default:
		return "unknown"
	}
}

// FieldChange - результат сравнения одного поля до и после обновления
type FieldChange int

const (
	FieldUnchanged FieldChange = iota
	FieldFinalized
	FieldReopened
	FieldUpdated
	// FieldPollValueChanged - значение изменилось, но поле осталось голосованием; уведомление не отправляется
	FieldPollValueChanged
)

type pollableFieldDef struct {
	field    PollableField
	pollFlag string
	// label - название поля в тексте уведомления
	label  string
	value  func(p *models.Plan) json.RawMessage
	isPoll func(p *models.Plan) bool
}

var pollableFields = [...]pollableFieldDef{
	{
		field:    FieldDate,
		pollFlag: "dateIsPoll",
		label:    "la fecha",
		value:    func(p *models.Plan) json.RawMessage { return p.Date },
		isPoll:   func(p *models.Plan) bool { return p.DateIsPoll },
	},
	{
		field:    FieldTime,
		pollFlag: "timeIsPoll",
		label:    "la hora",
		value:    func(p *models.Plan) json.RawMessage { return p.Time },
		isPoll:   func(p *models.Plan) bool { return p.TimeIsPoll },
	},
	{
		field:    FieldLocation,
		pollFlag: "locationIsPoll",
		label:    "el lugar",
		value:    func(p *models.Plan) json.RawMessage { return p.Location },
		isPoll:   func(p *models.Plan) bool { return p.LocationIsPoll },
	},
}

// classifyField сравнивает значение поля; смена одного только флага голосования изменением не считается
func classifyField(def pollableFieldDef, before, after *models.Plan) FieldChange {
	if canonicalJSON(def.value(before)) == canonicalJSON(def.value(after)) {
		return FieldUnchanged
	}

	wasPoll, isPoll := def.isPoll(before), def.isPoll(after)
	switch {
	case wasPoll && !isPoll:
		return FieldFinalized
	case !wasPoll && isPoll:
		return FieldReopened
	case !wasPoll && !isPoll:
		return FieldUpdated
	default:
		return FieldPollValueChanged
	}
}

// canonicalJSON приводит значение к одной сериализации: порядок ключей, пробелы, отсутствие == null
func canonicalJSON(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "null"
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return string(trimmed)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return string(trimmed)
	}
	return string(out)
}
