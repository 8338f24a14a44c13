// Package domain contains the pure data model for campaign calendar
// planning: segments, campaigns, calendar plans, and the closed set of
// rule violations. Types here carry no behavior beyond formatting and
// date arithmetic; all business logic lives in internal/planner.
package domain
