package plan

import "errors"

// Sentinel errors for the plan service layer.
var (
	ErrNotFound         = errors.New("plan not found")
	ErrCampaignNotFound = errors.New("campaign not found in plan")
	ErrDraftInProgress  = errors.New("a draft is already being generated for this client month")
	ErrNoSegments       = errors.New("client has no segments configured")
	ErrReservedSegment  = errors.New("segment name is reserved")
)
