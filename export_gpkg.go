package osm2act

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	gpkgApplicationID = 1196444487 // "GPKG"
	gpkgUserVersion   = 10300
	gpkgTableName     = "facilities"
	gpkgGeomColumn    = "geom"
)

var (
	gpkgSRSByCRS = map[string]int{
		CRS_WGS84:        4326,
		CRS_WEB_MERCATOR: 3857,
		"epsg:900913":    3857,
	}
	gpkgSRSDefinitions = map[int][2]string{
		4326: {"WGS 84", `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]`},
		3857: {"WGS 84 / Pseudo-Mercator", `PROJCS["WGS 84 / Pseudo-Mercator",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]],PROJECTION["Mercator_1SP"],PARAMETER["central_meridian",0],PARAMETER["scale_factor",1],PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AXIS["Easting",EAST],AXIS["Northing",NORTH],EXTENSION["PROJ4","+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +nadgrids=@null +wktext +no_defs"],AUTHORITY["EPSG","3857"]]`},
	}
)

const gpkgSchema = `
CREATE TABLE gpkg_spatial_ref_sys (
	srs_name TEXT NOT NULL,
	srs_id INTEGER NOT NULL PRIMARY KEY,
	organization TEXT NOT NULL,
	organization_coordsys_id INTEGER NOT NULL,
	definition TEXT NOT NULL,
	description TEXT
);

CREATE TABLE gpkg_contents (
	table_name TEXT NOT NULL PRIMARY KEY,
	data_type TEXT NOT NULL,
	identifier TEXT UNIQUE,
	description TEXT DEFAULT '',
	last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
	min_x DOUBLE,
	min_y DOUBLE,
	max_x DOUBLE,
	max_y DOUBLE,
	srs_id INTEGER,
	CONSTRAINT fk_gc_r_srs_id FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id)
);

CREATE TABLE gpkg_geometry_columns (
	table_name TEXT NOT NULL,
	column_name TEXT NOT NULL,
	geometry_type_name TEXT NOT NULL,
	srs_id INTEGER NOT NULL,
	z TINYINT NOT NULL,
	m TINYINT NOT NULL,
	CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name),
	CONSTRAINT fk_gc_tn FOREIGN KEY (table_name) REFERENCES gpkg_contents(table_name),
	CONSTRAINT fk_gc_srs FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys (srs_id)
);

INSERT INTO gpkg_spatial_ref_sys VALUES
	('Undefined cartesian SRS', -1, 'NONE', -1, 'undefined', 'undefined cartesian coordinate reference system'),
	('Undefined geographic SRS', 0, 'NONE', 0, 'undefined', 'undefined geographic coordinate reference system');
`

// gpkgGeometry encodes geometry as GeoPackage binary: header without envelope followed by WKB
func gpkgGeometry(geom orb.Geometry, srsID int) ([]byte, error) {
	buf := bytes.Buffer{}
	buf.Write([]byte{'G', 'P', 0, 0x01})
	err := binary.Write(&buf, binary.LittleEndian, int32(srsID))
	if err != nil {
		return nil, errors.Wrap(err, "Can't write SRS id")
	}
	data, err := wkb.Marshal(geom, binary.LittleEndian)
	if err != nil {
		return nil, errors.Wrap(err, "Can't marshal WKB")
	}
	buf.Write(data)
	return buf.Bytes(), nil
}

// quoteIdent quotes SQL identifier
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// WriteGeoPackage writes table as GeoPackage point layer. Existing file is replaced
func WriteGeoPackage(table *SummaryTable, fname, crs string) error {
	srsID, ok := gpkgSRSByCRS[normalizeCRS(crs)]
	if !ok {
		return errors.Errorf("CRS '%s' is not supported for GeoPackage", crs)
	}
	if err := os.Remove(fname); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "Can't remove existing GeoPackage")
	}
	db, err := sql.Open("sqlite", fname)
	if err != nil {
		return errors.Wrap(err, "Can't open GeoPackage")
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "Can't start transaction")
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		fmt.Sprintf("PRAGMA application_id = %d", gpkgApplicationID),
		fmt.Sprintf("PRAGMA user_version = %d", gpkgUserVersion),
		gpkgSchema,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return errors.Wrap(err, "Can't prepare GeoPackage schema")
		}
	}
	def := gpkgSRSDefinitions[srsID]
	_, err = tx.Exec("INSERT INTO gpkg_spatial_ref_sys VALUES (?, ?, 'EPSG', ?, ?, NULL)", def[0], srsID, srsID, def[1])
	if err != nil {
		return errors.Wrap(err, "Can't insert SRS")
	}

	columns := []string{"fid INTEGER PRIMARY KEY AUTOINCREMENT", quoteIdent(gpkgGeomColumn) + " POINT", "id TEXT", quoteIdent(table.ActivityColumn) + " TEXT"}
	for _, name := range table.FeatureColumns {
		columns = append(columns, quoteIdent(name)+" DOUBLE")
	}
	_, err = tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(gpkgTableName), strings.Join(columns, ", ")))
	if err != nil {
		return errors.Wrap(err, "Can't create features table")
	}

	bound := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0, 0}}
	if len(table.Rows) > 0 {
		bound = table.Rows[0].Geom.Bound()
	}
	insertColumns := []string{quoteIdent(gpkgGeomColumn), "id", quoteIdent(table.ActivityColumn)}
	for _, name := range table.FeatureColumns {
		insertColumns = append(insertColumns, quoteIdent(name))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(insertColumns)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(gpkgTableName), strings.Join(insertColumns, ", "), placeholders))
	if err != nil {
		return errors.Wrap(err, "Can't prepare insert statement")
	}
	defer stmt.Close()
	for _, row := range table.Rows {
		bound = bound.Extend(row.Geom)
		blob, err := gpkgGeometry(row.Geom, srsID)
		if err != nil {
			return errors.Wrapf(err, "Can't encode geometry of '%s'", row.ID)
		}
		args := []any{blob, row.ID, row.Activity}
		for _, name := range table.FeatureColumns {
			value := row.Features[name]
			if value == nil {
				args = append(args, nil)
				continue
			}
			args = append(args, *value)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return errors.Wrapf(err, "Can't insert '%s'", row.ID)
		}
	}

	_, err = tx.Exec(
		"INSERT INTO gpkg_contents (table_name, data_type, identifier, last_change, min_x, min_y, max_x, max_y, srs_id) VALUES (?, 'features', ?, ?, ?, ?, ?, ?, ?)",
		gpkgTableName, gpkgTableName, time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y(), srsID,
	)
	if err != nil {
		return errors.Wrap(err, "Can't register contents")
	}
	_, err = tx.Exec("INSERT INTO gpkg_geometry_columns VALUES (?, ?, 'POINT', ?, 0, 0)", gpkgTableName, gpkgGeomColumn, srsID)
	if err != nil {
		return errors.Wrap(err, "Can't register geometry column")
	}
	return errors.Wrap(tx.Commit(), "Can't commit GeoPackage")
}
