package dynql

// CachedTemplates reports how many statement templates db holds.
func (db *Database) CachedTemplates() int { return db.cache().size() }
