// Package vuln provides the business boundary for Warden's vulnerability records.
// It defines the Service (validation, lifecycle, grouped view), the Store interface
// (persistence), the Grouper interface (the grouping pipeline), and domain models.
package vuln
