package enums

// ResourceType is informational; any non-empty value is accepted.
type ResourceType string

const (
	ResourceTypeRoom  ResourceType = "room"
	ResourceTypeStaff ResourceType = "staff"
	ResourceTypeAsset ResourceType = "asset"
)
