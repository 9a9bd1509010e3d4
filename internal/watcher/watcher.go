// Package watcher keeps the in-memory databases synchronized with custom
// resource state. One watcher runs against the local cluster for the
// service's own configuration resources, and one independent watcher runs
// per managed cluster for the training resources hosted there.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/dynamic/dynamicinformer"
	"k8s.io/client-go/rest"
	k8scache "k8s.io/client-go/tools/cache"

	"github.com/educates/lookup-service/internal/cache"
)

// reconnectDelay is how long a watcher waits before restarting its watch
// loop after a failed connection attempt.
const reconnectDelay = 5 * time.Second

// eventFuncs is the pair of database mutations applied for one watched
// resource kind.
type eventFuncs struct {
	update func(*unstructured.Unstructured)
	remove func(*unstructured.Unstructured)
}

func asUnstructured(obj interface{}) (*unstructured.Unstructured, bool) {
	if tombstone, ok := obj.(k8scache.DeletedFinalStateUnknown); ok {
		obj = tombstone.Obj
	}
	resource, ok := obj.(*unstructured.Unstructured)
	return resource, ok
}

func (f eventFuncs) handler() k8scache.ResourceEventHandler {
	return k8scache.ResourceEventHandlerFuncs{
		AddFunc: func(obj interface{}) {
			if resource, ok := asUnstructured(obj); ok {
				f.update(resource)
			}
		},
		UpdateFunc: func(oldObj, newObj interface{}) {
			older, ok := asUnstructured(oldObj)
			if !ok {
				return
			}
			newer, ok := asUnstructured(newObj)
			if !ok {
				return
			}
			// Periodic resyncs redeliver the stored object unchanged.
			// Reapplying those would, among other things, reset client
			// revocation watermarks, so they are dropped here.
			if older.GetResourceVersion() == newer.GetResourceVersion() {
				return
			}
			f.update(newer)
		},
		DeleteFunc: func(obj interface{}) {
			if resource, ok := asUnstructured(obj); ok {
				f.remove(resource)
			}
		},
	}
}

// Supervisor owns the local configuration watcher and one watcher per
// managed cluster. Cluster watchers are started and stopped in response to
// ClusterConfig resources appearing and disappearing on the local cluster.
type Supervisor struct {
	logger      *slog.Logger
	state       *cache.ServiceState
	localConfig *rest.Config

	mutex    sync.Mutex
	stopped  bool
	watchers map[string]*clusterWatcher
	group    sync.WaitGroup
}

// clusterWatcher is the registration of one running cluster watcher. Each
// start allocates a fresh registration so a goroutine tearing down after
// its cluster was removed and re-added can tell its own map entry apart
// from a successor's.
type clusterWatcher struct {
	cancel context.CancelFunc
}

func NewSupervisor(logger *slog.Logger, state *cache.ServiceState, localConfig *rest.Config) *Supervisor {
	return &Supervisor{
		logger:      logger,
		state:       state,
		localConfig: localConfig,
		watchers:    make(map[string]*clusterWatcher),
	}
}

// Run watches the local configuration resources until the context is
// cancelled, then stops every cluster watcher and waits for them to exit.
func (s *Supervisor) Run(ctx context.Context) error {
	client, err := dynamic.NewForConfig(s.localConfig)
	if err != nil {
		return fmt.Errorf("creating local cluster client: %w", err)
	}

	handlers := &configHandlers{logger: s.logger, state: s.state}

	resources := map[schema.GroupVersionResource]eventFuncs{
		clientConfigsGVR: {update: handlers.updateClientConfig, remove: handlers.deleteClientConfig},
		tenantConfigsGVR: {update: handlers.updateTenantConfig, remove: handlers.deleteTenantConfig},
		accessConfigsGVR: {update: handlers.updateAccessConfig, remove: handlers.deleteAccessConfig},
		clusterConfigsGVR: {
			update: func(obj *unstructured.Unstructured) {
				handlers.updateClusterConfig(obj)
				s.startClusterWatcher(ctx, obj.GetName())
			},
			remove: func(obj *unstructured.Unstructured) {
				handlers.deleteClusterConfig(obj)
				s.stopClusterWatcher(obj.GetName())
			},
		},
	}

	for {
		err := s.watch(ctx, client, clusterConfigsGVR, resources)
		if ctx.Err() != nil {
			break
		}
		s.logger.Error("local configuration watch failed, restarting after delay", "error", err)

		select {
		case <-ctx.Done():
		case <-time.After(reconnectDelay):
			continue
		}
		break
	}

	s.mutex.Lock()
	s.stopped = true
	cancels := make([]context.CancelFunc, 0, len(s.watchers))
	for _, watcher := range s.watchers {
		cancels = append(cancels, watcher.cancel)
	}
	s.mutex.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	s.group.Wait()

	return nil
}

// startClusterWatcher starts a watcher for the named cluster if one is not
// already running.
func (s *Supervisor) startClusterWatcher(ctx context.Context, name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.stopped {
		return
	}
	if _, running := s.watchers[name]; running {
		// A changed kubeconfig takes effect on the watcher's next
		// reconnect, not by restarting it here.
		return
	}

	watcherCtx, cancel := context.WithCancel(ctx)
	registration := &clusterWatcher{cancel: cancel}
	s.watchers[name] = registration

	s.group.Add(1)
	go func() {
		defer s.group.Done()
		defer s.forgetClusterWatcher(name, registration)
		s.runClusterWatcher(watcherCtx, name)
	}()
}

// stopClusterWatcher stops the watcher for the named cluster and discards
// the training state mirrored from it.
func (s *Supervisor) stopClusterWatcher(name string) {
	s.mutex.Lock()
	watcher, running := s.watchers[name]
	delete(s.watchers, name)
	s.mutex.Unlock()

	if running {
		watcher.cancel()
	}

	s.purgeClusterState(name)
}

// forgetClusterWatcher removes a finished watcher's own registration. The
// cluster may have been removed and re-added while the watcher was tearing
// down, in which case the map holds a successor's registration which must
// stay tracked.
func (s *Supervisor) forgetClusterWatcher(name string, registration *clusterWatcher) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.watchers[name] == registration {
		delete(s.watchers, name)
	}
}

// purgeClusterState removes every mirrored record belonging to a cluster.
func (s *Supervisor) purgeClusterState(name string) {
	for _, portal := range s.state.PortalDatabase.All() {
		if portal.Cluster == name {
			s.state.PortalDatabase.Remove(portal.Key())
		}
	}
	for _, environment := range s.state.EnvironmentDatabase.All() {
		if environment.Cluster == name {
			s.state.EnvironmentDatabase.Remove(environment.Key())
		}
	}
	for _, session := range s.state.SessionDatabase.All() {
		if session.Cluster == name {
			s.state.SessionDatabase.Remove(session.Key())
		}
	}
}

// runClusterWatcher runs the watch loop for one managed cluster until the
// context is cancelled or the cluster configuration disappears. Each pass
// rereads the cluster configuration so that rotated credentials are picked
// up, and a failed pass is retried after a fixed delay.
func (s *Supervisor) runClusterWatcher(ctx context.Context, name string) {
	logger := s.logger.With("cluster", name)

	for {
		if ctx.Err() != nil {
			return
		}

		cluster, ok := s.state.ClusterDatabase.Get(name)
		if !ok {
			return
		}

		logger.Info("starting managed cluster watcher")

		err := s.watchManagedCluster(ctx, logger, cluster)
		if ctx.Err() != nil {
			return
		}

		logger.Error("connection error, restarting cluster watcher after delay", "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *Supervisor) watchManagedCluster(ctx context.Context, logger *slog.Logger, cluster *cache.ClusterConfig) error {
	config, err := restConfigForCluster(cluster)
	if err != nil {
		return err
	}

	client, err := dynamic.NewForConfig(config)
	if err != nil {
		return fmt.Errorf("creating client for cluster %q: %w", cluster.Name, err)
	}

	handlers := &trainingHandlers{logger: logger, state: s.state, cluster: cluster.Name}

	resources := map[schema.GroupVersionResource]eventFuncs{
		trainingPortalsGVR:      {update: handlers.updateTrainingPortal, remove: handlers.deleteTrainingPortal},
		workshopEnvironmentsGVR: {update: handlers.updateWorkshopEnvironment, remove: handlers.deleteWorkshopEnvironment},
		workshopSessionsGVR:     {update: handlers.updateWorkshopSession, remove: handlers.deleteWorkshopSession},
	}

	return s.watch(ctx, client, trainingPortalsGVR, resources)
}

// watch runs informers for the given resources until the context is
// cancelled or the watch degrades beyond what the reflector will recover
// on its own. The initial connection is probed with a plain list so that an
// unreachable cluster surfaces as an error here instead of the reflector
// retrying silently forever.
func (s *Supervisor) watch(ctx context.Context, client dynamic.Interface, probe schema.GroupVersionResource, resources map[schema.GroupVersionResource]eventFuncs) error {
	if _, err := client.Resource(probe).List(ctx, metav1.ListOptions{Limit: 1}); err != nil {
		return fmt.Errorf("initial connection failed: %w", err)
	}

	watchCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	factory := dynamicinformer.NewDynamicSharedInformerFactory(client, 0)
	defer factory.Shutdown()

	for gvr, funcs := range resources {
		informer := factory.ForResource(gvr).Informer()

		if _, err := informer.AddEventHandler(funcs.handler()); err != nil {
			return fmt.Errorf("registering event handler for %s: %w", gvr.Resource, err)
		}

		// Transient stream interruptions are the reflector's own problem
		// and are only logged. An authorization failure will not clear up
		// by retrying with the same credentials, so the whole watch loop
		// is torn down and restarted to pick up rotated credentials.
		gvr := gvr
		err := informer.SetWatchErrorHandler(func(_ *k8scache.Reflector, err error) {
			if apierrors.IsUnauthorized(err) || apierrors.IsForbidden(err) {
				cancel(fmt.Errorf("watch of %s no longer authorized: %w", gvr.Resource, err))
				return
			}
			s.logger.Warn("watch interrupted", "resource", gvr.Resource, "error", err)
		})
		if err != nil {
			return fmt.Errorf("registering watch error handler for %s: %w", gvr.Resource, err)
		}
	}

	factory.Start(watchCtx.Done())

	for gvr, synced := range factory.WaitForCacheSync(watchCtx.Done()) {
		if !synced {
			return fmt.Errorf("cache for %s never synced", gvr.Resource)
		}
	}

	<-watchCtx.Done()

	if cause := context.Cause(watchCtx); cause != nil && cause != ctx.Err() {
		return cause
	}
	return ctx.Err()
}
