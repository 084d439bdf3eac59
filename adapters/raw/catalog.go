package raw

import (
	"fmt"

	"github.com/raw-labs/machine-prediction-demo/ports"
)

// Catalog holds the RQL statements served by the machine_maintenance
// package on the engine.
type Catalog struct{}

var statements = map[ports.Statement]string{
	ports.StmtMachineList: `
from machine_maintenance import machine_data, maint;

select machineID as id,
       model,
       age,
       lat,
       long,
       cast((select max(m.datetime) from maint m where m.machineID = machineID) as date) as lmaint,
       cast((select max(f.datetime) from failures f) as date) as lfailure,
       status
from machine_data`,

	ports.StmtMachineWarnings: `
from machine_maintenance import machines;

select machineID as id, model, age, status
from machines
where status != "OK"`,

	ports.StmtFailuresByMonth: `
from machine_maintenance import failures, machines;

select month,
       select count(*) from * p group by p.model model order by model
from failures f, machines m
where f.machineID = m.machineID and f.datetime > :since
group by month(f.datetime) month
order by month`,

	ports.StmtFailuresByModel: `
from machine_maintenance import failures, machines;

select "machine " + mach as machine, count(*) N
from failures f, machines m
where f.machineID = m.machineID and f.datetime > :since
group by f.machineID mach
order by N desc
limit :limit`,

	ports.StmtMachineStatus: `
from machine_maintenance import machine_data, maint;

select lat, long, model, age, status,
       (select max(l.datetime) from maint l where l.machineID = :machine_id) as last_maint,
       (select l.datetime, l.failure from failures l order by l.datetime desc limit 5) as last_failures
from machine_data
where machineID = :machine_id`,

	ports.StmtTelemetry: `
from machine_maintenance import telemetry;

select t.datetime, t.volt, t.rotate, t.pressure, t.vibration
from telemetry t
where t.machineID = :machine_id and t.datetime >= :start and t.datetime <= :end
order by t.datetime asc`,

	ports.StmtErrors: `
from machine_maintenance import errors;

select t.datetime, t.error
from errors t
where t.machineID = :machine_id and t.datetime >= :start and t.datetime <= :end
order by t.datetime asc`,

	ports.StmtFailures: `
from machine_maintenance import failures;

select t.datetime, t.failure
from failures t
where t.machineID = :machine_id and t.datetime >= :start and t.datetime <= :end
order by t.datetime asc`,

	ports.StmtFeatures: `
from machine_maintenance import features;

select f.features, if (f.failure = 0) then 0 else 1 as failure
from features(:measure, :prediction, :start, :end) f`,
}

// Statement implements ports.Catalog.
func (Catalog) Statement(name ports.Statement) (string, error) {
	text, ok := statements[name]
	if !ok {
		return "", fmt.Errorf("no RQL statement named %q", name)
	}
	return text, nil
}

var _ ports.Catalog = Catalog{}
