// Package domain contains the core entities of the partner scanner: partner
// descriptors, extracted domain entries, per-partner scan results and the
// summary derived from them. These types are free of infrastructure concerns so
// they can be shared by the scanner, the exporters, the storage layer and the API.
package domain
