package api

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cleverdining/datahub/internal/models"
)

// Resource names a role-scoped slice of the upstream API.
type Resource string

const (
	ResourceFoods        Resource = "foods"
	ResourceOrders       Resource = "orders"
	ResourceReservations Resource = "reservations"
	ResourceDevices      Resource = "devices"
	ResourceMembers      Resource = "members"
	ResourceCategories   Resource = "categories"
	ResourceRestaurants  Resource = "restaurants"
)

//go:embed endpoints.yaml
var endpointsYAML []byte

type endpointTable struct {
	Prefixes  map[string]string   `yaml:"prefixes"`
	Resources map[string]string   `yaml:"resources"`
	Allow     map[string][]string `yaml:"allow"`
}

var endpoints = mustLoadEndpoints()

func mustLoadEndpoints() endpointTable {
	var t endpointTable
	if err := yaml.Unmarshal(endpointsYAML, &t); err != nil {
		panic(fmt.Sprintf("api: bad embedded endpoint table: %v", err))
	}
	return t
}

// EndpointFor resolves the role-prefixed path for a resource, replacing the
// per-function role branching the upstream dashboards scattered around.
func EndpointFor(role models.Role, res Resource) (string, error) {
	prefix, ok := endpoints.Prefixes[string(role)]
	if !ok {
		return "", fmt.Errorf("%w: role %q", ErrRoleUnresolved, role)
	}
	path, ok := endpoints.Resources[string(res)]
	if !ok {
		return "", fmt.Errorf("unknown resource %q", res)
	}
	for _, allowed := range endpoints.Allow[string(role)] {
		if allowed == string(res) {
			return prefix + path, nil
		}
	}
	return "", fmt.Errorf("%w: %q for %q", ErrResourceForbidden, res, role)
}
