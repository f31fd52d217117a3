package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AdminSessionKey returns the cache key holding an admin's active token ID.
func (r *CacheKeyStruct) AdminSessionKey(adminID int) string {
	return fmt.Sprintf("login:admin:%d", adminID)
}

// LedgerVersionKey returns the counter key bumped on every attendance write.
// Cohort query caches embed the counter so they expire on any ledger change.
func (r *CacheKeyStruct) LedgerVersionKey() string {
	return "ledger:version"
}

// NewlyPassedKey returns the cache key for a cohort-diff result at a given
// ledger version.
func (r *CacheKeyStruct) NewlyPassedKey(academicYear int, ledgerVersion int64) string {
	return fmt.Sprintf("cohort:newly_passed:%d:v%d", academicYear, ledgerVersion)
}

var CacheKey = NewCacheKeyStruct()
