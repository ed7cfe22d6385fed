package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Экземпляр задачи
	AttrInstanceFingerprint = "instance.fingerprint"
	AttrInstanceNodes       = "instance.nodes"
	AttrInstanceCustomers   = "instance.customers"

	// Генерация колонок
	AttrCGIteration         = "cg.iteration"
	AttrCGMasterObjective   = "cg.master_objective"
	AttrCGPricingObjective  = "cg.pricing_objective"
	AttrCGColumnsAdded      = "cg.columns_added"
	AttrCGRouteCount        = "cg.route_count"

	// Валидация
	AttrValidationLevel  = "validation.level"
	AttrValidationErrors = "validation.errors"
	AttrValidationPassed = "validation.passed"
)

// InstanceAttributes возвращает атрибуты решаемого экземпляра задачи.
func InstanceAttributes(fingerprint string, nodes, customers int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrInstanceFingerprint, fingerprint),
		attribute.Int(AttrInstanceNodes, nodes),
		attribute.Int(AttrInstanceCustomers, customers),
	}
}

// CGIterationAttributes возвращает атрибуты одной итерации генерации
// колонок: номер итерации, значения мастер- и прайсинг-задач и число
// добавленных в мастер-задачу колонок.
func CGIterationAttributes(iteration int, masterObjective, pricingObjective float64, columnsAdded int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrCGIteration, iteration),
		attribute.Float64(AttrCGMasterObjective, masterObjective),
		attribute.Float64(AttrCGPricingObjective, pricingObjective),
		attribute.Int(AttrCGColumnsAdded, columnsAdded),
	}
}

// ValidationAttributes возвращает атрибуты валидации
func ValidationAttributes(level string, errorsCount int, passed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrValidationLevel, level),
		attribute.Int(AttrValidationErrors, errorsCount),
		attribute.Bool(AttrValidationPassed, passed),
	}
}
