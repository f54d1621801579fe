package natsbus

import "fmt"

// Topic patterns for NATS pub/sub communication.

func TopicSimEvents(simID string) string {
	return fmt.Sprintf("sim.%s.events", simID)
}

func TopicSimStatus(simID string) string {
	return fmt.Sprintf("sim.%s.status", simID)
}

func TopicSimResult(simID string) string {
	return fmt.Sprintf("sim.%s.result", simID)
}

func TopicSchedule(scheduleID string) string {
	return fmt.Sprintf("schedule.%s.runs", scheduleID)
}

const (
	TopicSimAll      = "sim.>"
	TopicSimEventAny = "sim.*.events"
	TopicScheduleAll = "schedule.>"
)
