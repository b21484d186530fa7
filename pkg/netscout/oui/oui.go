// Package oui maps hardware addresses of responding hosts to the vendor
// registered for their IEEE OUI prefix.
package oui

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/oui"
)

// ErrInvalidMAC is returned for input that is not a 48-bit MAC address.
var ErrInvalidMAC = errors.New("invalid MAC address format")

// DebugLogger is a callback for debug logging.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// VendorInfo describes the registrant of an OUI prefix.
type VendorInfo struct {
	Manufacturer string
	Address      []string
	Country      string
	Prefix       string
}

// Database is a lazily opened OUI database. An empty path selects the
// database embedded in github.com/klauspost/oui.
type Database struct {
	mu   sync.RWMutex
	path string
	db   oui.OuiDB
	err  error
	once sync.Once
}

// NewDatabase returns a database backed by path, or the embedded copy when
// path is empty. Nothing is read until the first lookup.
func NewDatabase(path string) (*Database, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("OUI database file not found: %s", path)
		}
	}
	return &Database{path: path}, nil
}

// Path returns the database file path (empty when embedded).
func (d *Database) Path() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.path
}

func (d *Database) load() (oui.OuiDB, error) {
	d.mu.RLock()
	once := &d.once
	d.mu.RUnlock()

	once.Do(func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.path != "" {
			debugLog("Loading OUI database from: %s", d.path)
			d.db, d.err = oui.OpenFile(d.path)
		} else {
			debugLog("Loading embedded OUI database")
			d.db, d.err = oui.OpenStaticFile("")
		}
		if d.err != nil {
			d.err = fmt.Errorf("failed to open OUI database: %w", d.err)
		}
	})

	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db, d.err
}

// Loaded reports whether the database has been opened successfully.
func (d *Database) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db != nil
}

// Reload discards the opened database and opens it again.
func (d *Database) Reload() error {
	d.mu.Lock()
	d.once = sync.Once{}
	d.db = nil
	d.err = nil
	d.mu.Unlock()

	debugLog("OUI database reload triggered")
	_, err := d.load()
	return err
}

// LookupHardwareAddr returns the vendor for mac. An unknown prefix yields
// (nil, nil).
func (d *Database) LookupHardwareAddr(mac net.HardwareAddr) (*VendorInfo, error) {
	if len(mac) != 6 {
		return nil, ErrInvalidMAC
	}
	db, err := d.load()
	if err != nil {
		return nil, err
	}

	entry, err := db.Query(mac.String())
	if err != nil {
		if errors.Is(err, oui.ErrNotFound) {
			debugLog("%s: vendor not found in database", mac)
			return nil, nil
		}
		return nil, fmt.Errorf("OUI lookup failed: %w", err)
	}

	vendor := &VendorInfo{
		Manufacturer: entry.Manufacturer,
		Prefix:       entry.Prefix.String(),
		Country:      entry.Country,
	}
	if len(entry.Address) > 0 {
		vendor.Address = entry.Address
	}

	debugLog("%s -> %s", mac, vendor.Manufacturer)
	return vendor, nil
}

// Lookup accepts "00:11:22:33:44:55", "00-11-22-33-44-55", "0011.2233.4455"
// or "001122334455".
func (d *Database) Lookup(mac string) (*VendorInfo, error) {
	norm := NormalizeMAC(mac)
	if norm == "" {
		return nil, ErrInvalidMAC
	}
	hw, err := net.ParseMAC(norm)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MAC address: %w", err)
	}
	return d.LookupHardwareAddr(hw)
}

// LookupName returns the manufacturer, or "" if unknown or on error.
func (d *Database) LookupName(mac net.HardwareAddr) string {
	vendor, err := d.LookupHardwareAddr(mac)
	if err != nil || vendor == nil {
		return ""
	}
	return vendor.Manufacturer
}

var (
	defaultMu sync.RWMutex
	defaultDB = &Database{}
)

// Default returns the package-level database used by the helpers below.
func Default() *Database {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultDB
}

// SetDatabase switches the package-level database to the file at path.
func SetDatabase(path string) error {
	db, err := NewDatabase(path)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	defaultDB = db
	defaultMu.Unlock()
	debugLog("Custom OUI database path set: %s", path)
	return nil
}

// Lookup looks up mac in the package-level database.
func Lookup(mac string) (*VendorInfo, error) {
	return Default().Lookup(mac)
}

// LookupName returns just the manufacturer name from the package-level
// database, or "" if not found.
func LookupName(mac string) string {
	vendor, err := Lookup(mac)
	if err != nil || vendor == nil {
		return ""
	}
	return vendor.Manufacturer
}

// NormalizeMAC normalizes common MAC formats to lowercase colon form.
// Returns empty string if invalid.
func NormalizeMAC(mac string) string {
	mac = strings.ToLower(mac)
	mac = strings.NewReplacer("-", "", ":", "", ".", "").Replace(mac)

	if len(mac) != 12 {
		return ""
	}
	for _, c := range mac {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return ""
		}
	}

	var b strings.Builder
	for i := 0; i < 12; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(mac[i : i+2])
	}
	return b.String()
}
