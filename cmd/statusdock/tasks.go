package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Docker-Hunterpedia/StatusDock/core"
)

// TaskSendNotification marks a notification as sent
const TaskSendNotification = "send-notification"

func (a *app) tasks() []core.Task {
	return []core.Task{
		core.NewTask(TaskSendNotification, a.sendNotification).
			WithTitle("Send notification").
			Build(),
	}
}

func (a *app) sendNotification(ctx context.Context, input map[string]any) error {
	id, ok := input["notificationId"]
	if !ok {
		return fmt.Errorf("notificationId is required")
	}

	cms, err := a.adapter(ctx)
	if err != nil {
		return err
	}
	doc, err := cms.FindByID(ctx, core.CollectionNotifications, id, 0)
	if err != nil {
		return err
	}
	notification, err := core.Decode[core.Notification](doc)
	if err != nil {
		return err
	}

	a.log.Info("sending notification").
		Str("notification", notification.ID).
		Str("channel", string(notification.Channel)).
		Send()

	_, err = cms.Update(ctx, core.CollectionNotifications, id, core.Document{
		"status": string(core.NotificationSent),
		"sentAt": core.FormatTimestamp(time.Now()),
	})
	return err
}
