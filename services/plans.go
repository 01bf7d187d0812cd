package services

import (
	"context"
	"fmt"

	"socialpush/logger"
	"socialpush/models"

	"go.uber.org/zap"
)

// AttendancePolicy - сколько участников сообщать хосту, если за одно обновление пришло/ушло несколько
type AttendancePolicy string

const (
	// AttendanceFirst - только первый найденный участник
	AttendanceFirst AttendancePolicy = "first"
	// AttendanceAll - отдельное уведомление на каждого участника
	AttendanceAll AttendancePolicy = "all"
)

const (
	fallbackPlanTitle = "Tu plan"
	fallbackHostName  = "El anfitrión"
)

// AttendanceClassifier сообщает хосту, что кто-то присоединился к плану или отказался
type AttendanceClassifier struct {
	notifier *Notifier
	profiles ProfileStore
	policy   AttendancePolicy
}

func NewAttendanceClassifier(notifier *Notifier, profiles ProfileStore, policy AttendancePolicy) *AttendanceClassifier {
	if policy != AttendanceAll {
		policy = AttendanceFirst
	}
	return &AttendanceClassifier{notifier: notifier, profiles: profiles, policy: policy}
}

func (c *AttendanceClassifier) OnUpdated(ctx context.Context, before, after *models.Plan) Report {
	if before == nil || after == nil || after.HostID == "" {
		return Report{}
	}

	added := memberDiff(after.AcceptedParticipants, before.AcceptedParticipants, after.HostID)
	removed := memberDiff(before.AcceptedParticipants, after.AcceptedParticipants, after.HostID)

	switch {
	case len(added) > 0:
		return c.notifyHost(ctx, after, c.pick(added), models.KindPlanJoined, "%s se unió al plan")
	case len(removed) > 0:
		return c.notifyHost(ctx, after, c.pick(removed), models.KindPlanLeft, "%s canceló su asistencia")
	default:
		return Report{}
	}
}

func (c *AttendanceClassifier) pick(members []string) []string {
	if c.policy == AttendanceAll {
		return members
	}
	return members[:1]
}

func (c *AttendanceClassifier) notifyHost(ctx context.Context, plan *models.Plan, members []string, kind models.NotificationKind, bodyFormat string) Report {
	var report Report
	for _, member := range members {
		msg := models.NotificationMessage{
			Kind:  kind,
			Title: planTitle(plan),
			Body:  fmt.Sprintf(bodyFormat, displayName(ctx, c.profiles, member)),
			Data:  map[string]string{"planId": plan.PlanID, "userId": member},
		}
		report.Add(c.notifier.Notify(ctx, msg, plan.HostID))
	}
	return report
}

// FieldChangeClassifier уведомляет гостей плана об изменении даты, времени или места
type FieldChangeClassifier struct {
	notifier *Notifier
}

func NewFieldChangeClassifier(notifier *Notifier) *FieldChangeClassifier {
	return &FieldChangeClassifier{notifier: notifier}
}

func (c *FieldChangeClassifier) OnUpdated(ctx context.Context, before, after *models.Plan) Report {
	if before == nil || after == nil {
		return Report{}
	}
	guests := after.Guests()
	if len(guests) == 0 {
		return Report{}
	}

	var report Report
	for _, def := range pollableFields {
		change := classifyField(def, before, after)

		var body string
		var kind models.NotificationKind
		switch change {
		case FieldFinalized:
			kind, body = models.KindFieldFinalized, fmt.Sprintf("Se definió %s", def.label)
		case FieldReopened:
			kind, body = models.KindFieldReopened, fmt.Sprintf("Se abrió la votación para %s", def.label)
		case FieldUpdated:
			kind, body = models.KindFieldUpdated, fmt.Sprintf("%s cambió %s", hostName(after), def.label)
		case FieldPollValueChanged:
			logger.Debug("poll value changed, no notification",
				zap.String("plan_id", after.PlanID),
				zap.Stringer("field", def.field),
				zap.String("poll_flag", def.pollFlag),
			)
			continue
		default:
			continue
		}

		msg := models.NotificationMessage{
			Kind:  kind,
			Title: planTitle(after),
			Body:  body,
			Data:  map[string]string{"planId": after.PlanID, "field": def.field.String()},
		}
		report.Add(c.notifier.Notify(ctx, msg, guests...))
	}
	return report
}

// PlanDeletionHandler сообщает гостям, что хост отменил план
type PlanDeletionHandler struct {
	notifier *Notifier
}

func NewPlanDeletionHandler(notifier *Notifier) *PlanDeletionHandler {
	return &PlanDeletionHandler{notifier: notifier}
}

func (h *PlanDeletionHandler) OnDeleted(ctx context.Context, plan *models.Plan) Report {
	if plan == nil {
		return Report{}
	}
	guests := plan.Guests()
	if len(guests) == 0 {
		return Report{}
	}

	msg := models.NotificationMessage{
		Kind:  models.KindPlanCancelled,
		Title: "Plan cancelado",
		Body:  fmt.Sprintf("%s canceló \"%s\"", hostName(plan), planTitle(plan)),
		Data:  map[string]string{"planId": plan.PlanID},
	}
	return h.notifier.Notify(ctx, msg, guests...)
}

// memberDiff - элементы from, которых нет в minus, без хоста и повторов, в порядке from
func memberDiff(from, minus []string, hostID string) []string {
	exclude := make(map[string]struct{}, len(minus)+1)
	for _, id := range minus {
		exclude[id] = struct{}{}
	}
	exclude[hostID] = struct{}{}
	exclude[""] = struct{}{}

	var diff []string
	for _, id := range from {
		if _, ok := exclude[id]; ok {
			continue
		}
		exclude[id] = struct{}{}
		diff = append(diff, id)
	}
	return diff
}

func planTitle(p *models.Plan) string {
	if p.Title == "" {
		return fallbackPlanTitle
	}
	return p.Title
}

func hostName(p *models.Plan) string {
	if p.HostName == "" {
		return fallbackHostName
	}
	return p.HostName
}
