package repository

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS supplier_stock (
        id BIGSERIAL PRIMARY KEY,
        retailer_id VARCHAR(64) NOT NULL,
        retailer_gln VARCHAR(13) NOT NULL,
        supplier_id BIGINT NOT NULL,
        supplier_gln VARCHAR(13) NOT NULL,
        supplier_name VARCHAR(255),
        gtin VARCHAR(14) NOT NULL,
        quantity INTEGER CHECK (quantity IS NULL OR quantity >= 0),
        stock_traffic_light VARCHAR(16),
        item_type VARCHAR(16),
        stock_timestamp TIMESTAMPTZ,
        synced_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
        UNIQUE (gtin, supplier_gln)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_supplier_stock_supplier_gln ON supplier_stock (supplier_gln)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS supplier_stock (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        retailer_id TEXT NOT NULL,
        retailer_gln TEXT NOT NULL,
        supplier_id INTEGER NOT NULL,
        supplier_gln TEXT NOT NULL,
        supplier_name TEXT,
        gtin TEXT NOT NULL,
        quantity INTEGER CHECK (quantity IS NULL OR quantity >= 0),
        stock_traffic_light TEXT,
        item_type TEXT,
        stock_timestamp TIMESTAMP,
        synced_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        UNIQUE (gtin, supplier_gln)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_supplier_stock_supplier_gln ON supplier_stock (supplier_gln)`,
}

func schemaFor(driver string) []string {
	if driver == "sqlite3" {
		return sqliteSchema
	}
	return postgresSchema
}
