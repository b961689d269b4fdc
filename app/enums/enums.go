// Package enums provides type-safe enumeration types shared by the web and terminal front-ends.
//
// The enum types are defined as unexported integer types (e.g., viewMode int) in this file,
// and the go:generate directive invokes the go-pkgz/enum generator to create the corresponding
// exported type with all necessary methods in a separate file (*_enum.go).
//
// For each enum type, the generator creates:
//   - An exported struct type (e.g., ViewMode) with name and value fields
//   - String() method for string representation
//   - Parse functions (e.g., ParseViewMode) for string-to-enum conversion
//   - Database methods (Scan/Value) for SQL compatibility
//   - Text marshaling methods (MarshalText/UnmarshalText)
//   - Exported constants for each enum value (e.g., ViewModeAll, ViewModeActive)
//
// Usage:
//
//	mode, err := enums.ParseViewMode("active")
//	if err != nil {
//	    // handle invalid input
//	}
//	fmt.Println(mode.String()) // "active"
//
// To regenerate the enum types after modifications:
//
//	go generate ./app/enums
package enums

//go:generate go run github.com/go-pkgz/enum@latest -type viewMode -lower

// viewMode represents the list filter selected by the user: every item, only pending or only done.
// This is an unexported type used only as input for the code generator.
// Use the exported ViewMode type and its constants in actual code.
type viewMode int

const (
	viewModeAll viewMode = iota
	viewModeActive
	viewModeCompleted
)
