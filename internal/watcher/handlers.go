package watcher

import (
	"log/slog"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/educates/lookup-service/internal/cache"
)

// Configuration resources watched on the local cluster.
var (
	clientConfigsGVR  = schema.GroupVersionResource{Group: "lookup.educates.dev", Version: "v1beta1", Resource: "clientconfigs"}
	tenantConfigsGVR  = schema.GroupVersionResource{Group: "lookup.educates.dev", Version: "v1beta1", Resource: "tenantconfigs"}
	clusterConfigsGVR = schema.GroupVersionResource{Group: "lookup.educates.dev", Version: "v1beta1", Resource: "clusterconfigs"}
	accessConfigsGVR  = schema.GroupVersionResource{Group: "lookup.educates.dev", Version: "v1beta1", Resource: "accessconfigs"}
)

// Training resources watched on each managed cluster.
var (
	trainingPortalsGVR      = schema.GroupVersionResource{Group: "training.educates.dev", Version: "v1beta1", Resource: "trainingportals"}
	workshopEnvironmentsGVR = schema.GroupVersionResource{Group: "training.educates.dev", Version: "v1beta1", Resource: "workshopenvironments"}
	workshopSessionsGVR     = schema.GroupVersionResource{Group: "training.educates.dev", Version: "v1beta1", Resource: "workshopsessions"}
)

// configHandlers applies create/update/delete events for the local
// configuration resources as database mutations.
type configHandlers struct {
	logger *slog.Logger
	state  *cache.ServiceState
}

func (h *configHandlers) updateClientConfig(obj *unstructured.Unstructured) {
	spec := obj.Object

	user := fieldString(spec, "spec.client.user", "")
	if user == "" {
		// The top level "user" field is the deprecated spelling.
		user = fieldString(spec, "spec.user", "")
	}

	h.logger.Info("register client configuration",
		"name", obj.GetName(), "generation", obj.GetGeneration())

	h.state.ClientDatabase.Update(cache.NewClientConfig(
		obj.GetName(),
		string(obj.GetUID()),
		fieldString(spec, "spec.client.password", ""),
		user,
		fieldString(spec, "spec.client.proxy.issuer", ""),
		fieldString(spec, "spec.client.proxy.secret", ""),
		fieldStringSlice(spec, "spec.tenants"),
		fieldStringSlice(spec, "spec.roles"),
	))
}

func (h *configHandlers) deleteClientConfig(obj *unstructured.Unstructured) {
	h.logger.Info("discard client configuration",
		"name", obj.GetName(), "generation", obj.GetGeneration())

	h.state.ClientDatabase.Remove(obj.GetName())
}

func (h *configHandlers) updateTenantConfig(obj *unstructured.Unstructured) {
	spec := obj.Object

	h.logger.Info("register tenant configuration",
		"name", obj.GetName(), "generation", obj.GetGeneration())

	h.state.TenantDatabase.Update(&cache.TenantConfig{
		Name:     obj.GetName(),
		Clusters: fieldStringSlice(spec, "spec.clusters"),
		Portals:  fieldStringSlice(spec, "spec.portals"),
	})
}

func (h *configHandlers) deleteTenantConfig(obj *unstructured.Unstructured) {
	h.logger.Info("discard tenant configuration",
		"name", obj.GetName(), "generation", obj.GetGeneration())

	h.state.TenantDatabase.Remove(obj.GetName())
}

func (h *configHandlers) updateClusterConfig(obj *unstructured.Unstructured) {
	spec := obj.Object

	h.logger.Info("register cluster configuration",
		"name", obj.GetName(), "generation", obj.GetGeneration())

	h.state.ClusterDatabase.Update(&cache.ClusterConfig{
		Name:       obj.GetName(),
		Kubeconfig: []byte(fieldString(spec, "spec.credentials.kubeconfig", "")),
	})
}

func (h *configHandlers) deleteClusterConfig(obj *unstructured.Unstructured) {
	h.logger.Info("discard cluster configuration",
		"name", obj.GetName(), "generation", obj.GetGeneration())

	h.state.ClusterDatabase.Remove(obj.GetName())
}

func (h *configHandlers) updateAccessConfig(obj *unstructured.Unstructured) {
	spec := obj.Object

	h.logger.Info("register access configuration",
		"name", obj.GetName(), "generation", obj.GetGeneration())

	h.state.AccessDatabase.Update(&cache.AccessConfig{
		Name:           obj.GetName(),
		AllowedOrigins: fieldStringSlice(spec, "spec.allowedOrigins"),
	})
}

func (h *configHandlers) deleteAccessConfig(obj *unstructured.Unstructured) {
	h.logger.Info("discard access configuration",
		"name", obj.GetName(), "generation", obj.GetGeneration())

	h.state.AccessDatabase.Remove(obj.GetName())
}

// trainingHandlers applies create/update/delete events for the training
// resources of one managed cluster as database mutations.
type trainingHandlers struct {
	logger  *slog.Logger
	state   *cache.ServiceState
	cluster string
}

func (h *trainingHandlers) updateTrainingPortal(obj *unstructured.Unstructured) {
	spec := obj.Object

	h.logger.Info("register training portal",
		"name", obj.GetName(), "generation", obj.GetGeneration())

	h.state.PortalDatabase.Update(&cache.Portal{
		Name:       obj.GetName(),
		Cluster:    h.cluster,
		UID:        obj.GetUID(),
		Generation: obj.GetGeneration(),
		URL:        fieldString(spec, "status.educates.url", ""),
		Credentials: cache.PortalCredentials{
			ClientID:     fieldString(spec, "status.educates.clients.robot.id", ""),
			ClientSecret: fieldString(spec, "status.educates.clients.robot.secret", ""),
			Username:     fieldString(spec, "status.educates.credentials.robot.username", ""),
			Password:     fieldString(spec, "status.educates.credentials.robot.password", ""),
		},
		Capacity:  fieldCapacity(spec, "spec.portal.sessions.maximum"),
		Allocated: int(fieldInt(spec, "status.educates.sessions.allocated", 0)),
		Phase:     fieldString(spec, "status.educates.phase", ""),
	})
}

func (h *trainingHandlers) deleteTrainingPortal(obj *unstructured.Unstructured) {
	h.logger.Info("discard training portal", "name", obj.GetName())

	h.state.PortalDatabase.Remove(h.cluster + "/" + obj.GetName())
}

func (h *trainingHandlers) updateWorkshopEnvironment(obj *unstructured.Unstructured) {
	spec := obj.Object

	h.logger.Info("register workshop environment",
		"name", obj.GetName(), "generation", obj.GetGeneration())

	h.state.EnvironmentDatabase.Update(&cache.Environment{
		Name:        obj.GetName(),
		Cluster:     h.cluster,
		Portal:      fieldString(spec, "spec.portal.name", ""),
		Workshop:    fieldString(spec, "spec.workshop.name", ""),
		Title:       fieldString(spec, "status.educates.workshop.title", ""),
		Description: fieldString(spec, "status.educates.workshop.description", ""),
		Labels:      fieldStringMap(spec, "status.educates.workshop.labels"),
		Capacity:    fieldCapacity(spec, "spec.environment.capacity"),
		Allocated:   int(fieldInt(spec, "status.educates.sessions.allocated", 0)),
		Reserved:    int(fieldInt(spec, "spec.environment.reserved", 0)),
		Available:   int(fieldInt(spec, "status.educates.sessions.available", 0)),
		State:       fieldString(spec, "status.educates.state", ""),
	})
}

func (h *trainingHandlers) deleteWorkshopEnvironment(obj *unstructured.Unstructured) {
	h.logger.Info("discard workshop environment", "name", obj.GetName())

	h.state.EnvironmentDatabase.Remove(h.cluster + "/" + obj.GetName())
}

func (h *trainingHandlers) updateWorkshopSession(obj *unstructured.Unstructured) {
	spec := obj.Object

	h.state.SessionDatabase.Update(&cache.Session{
		Name:        obj.GetName(),
		Cluster:     h.cluster,
		Portal:      fieldString(spec, "spec.portal.name", ""),
		Environment: fieldString(spec, "spec.environment.name", ""),
		Workshop:    fieldString(spec, "spec.workshop.name", ""),
		User:        fieldString(spec, "spec.user", ""),
	})
}

func (h *trainingHandlers) deleteWorkshopSession(obj *unstructured.Unstructured) {
	h.state.SessionDatabase.Remove(h.cluster + "/" + obj.GetName())
}
