package postgres

import (
	"fmt"

	"github.com/raw-labs/machine-prediction-demo/ports"
)

// Catalog holds the SQL statements for the mirror schema created by
// the migrations package. Placeholders use sqlx named syntax, so casts
// are written with CAST rather than a double colon.
type Catalog struct{}

var statements = map[ports.Statement]string{
	ports.StmtMachineList: `
SELECT m.machine_id AS id, m.model, m.age, m.lat, m.long,
       (SELECT CAST(max(mt.datetime) AS date) FROM maint mt WHERE mt.machine_id = m.machine_id) AS lmaint,
       (SELECT CAST(max(f.datetime) AS date) FROM failures f) AS lfailure,
       m.status
FROM machines m
ORDER BY m.machine_id`,

	ports.StmtMachineWarnings: `
SELECT machine_id AS id, model, age, status
FROM machines
WHERE status <> 'OK'
ORDER BY machine_id`,

	ports.StmtFailuresByMonth: `
SELECT CAST(extract(month FROM f.datetime) AS integer) AS month, m.model, count(*) AS n
FROM failures f JOIN machines m ON m.machine_id = f.machine_id
WHERE f.datetime > :since
GROUP BY 1, m.model
ORDER BY 1, m.model`,

	ports.StmtFailuresByModel: `
SELECT 'machine ' || f.machine_id AS machine, count(*) AS "N"
FROM failures f JOIN machines m ON m.machine_id = f.machine_id
WHERE f.datetime > :since
GROUP BY f.machine_id
ORDER BY 2 DESC
LIMIT :limit`,

	ports.StmtMachineStatus: `
SELECT m.lat, m.long, m.model, m.age, m.status,
       (SELECT max(mt.datetime) FROM maint mt WHERE mt.machine_id = :machine_id) AS last_maint
FROM machines m
WHERE m.machine_id = :machine_id`,

	ports.StmtTelemetry: `
SELECT t.datetime, t.volt, t.rotate, t.pressure, t.vibration
FROM telemetry t
WHERE t.machine_id = :machine_id AND t.datetime >= :start AND t.datetime <= :end
ORDER BY t.datetime`,

	ports.StmtErrors: `
SELECT e.datetime, e.error_id AS error
FROM errors e
WHERE e.machine_id = :machine_id AND e.datetime >= :start AND e.datetime <= :end
ORDER BY e.datetime`,

	ports.StmtFailures: `
SELECT f.datetime, f.component AS failure
FROM failures f
WHERE f.machine_id = :machine_id AND f.datetime >= :start AND f.datetime <= :end
ORDER BY f.datetime`,

	ports.StmtFeatures: `
SELECT f.features, CASE WHEN f.failure = 0 THEN 0 ELSE 1 END AS failure
FROM machine_features(make_interval(days => :measure), make_interval(days => :prediction),
                      CAST(:start AS date), CAST(:end AS date)) f`,
}

// Statement implements ports.Catalog.
func (Catalog) Statement(name ports.Statement) (string, error) {
	text, ok := statements[name]
	if !ok {
		return "", fmt.Errorf("no SQL statement named %q", name)
	}
	return text, nil
}

var _ ports.Catalog = Catalog{}
