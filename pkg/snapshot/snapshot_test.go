package snapshot

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	testclient "k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	metricsfake "k8s.io/metrics/pkg/client/clientset/versioned/fake"

	"github.com/kubesnap/kubesnap/pkg/lbhealth"
)

type stubSource struct {
	groups map[string][]lbhealth.TargetGroup
	health map[string][]lbhealth.TargetHealth
}

func (s *stubSource) Available() bool { return true }

func (s *stubSource) TargetGroups(ctx context.Context, loadBalancerARN string) ([]lbhealth.TargetGroup, error) {
	groups, ok := s.groups[loadBalancerARN]
	if !ok {
		return nil, errors.Errorf("no load balancer %s", loadBalancerARN)
	}
	return groups, nil
}

func (s *stubSource) TargetHealth(ctx context.Context, targetGroupARN string) ([]lbhealth.TargetHealth, error) {
	health, ok := s.health[targetGroupARN]
	if !ok {
		return nil, errors.Errorf("no target group %s", targetGroupARN)
	}
	return health, nil
}

func seedCluster() *testclient.Clientset {
	return testclient.NewSimpleClientset(
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "app"}},
		&corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "node-1"}},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: "api-0", Namespace: "app"},
			Spec:       corev1.PodSpec{Containers: []corev1.Container{{Name: "app"}}},
			Status: corev1.PodStatus{
				ContainerStatuses: []corev1.ContainerStatus{{Name: "app", RestartCount: 2}},
			},
		},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Name: "web-0", Namespace: "app"},
			Spec:       corev1.PodSpec{Containers: []corev1.Container{{Name: "app"}}},
			Status: corev1.PodStatus{
				ContainerStatuses: []corev1.ContainerStatus{{Name: "app", RestartCount: 0}},
			},
		},
		&corev1.Service{ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "app"}},
		&networkingv1.Ingress{
			ObjectMeta: metav1.ObjectMeta{
				Name:      "web",
				Namespace: "app",
				Annotations: map[string]string{
					lbhealth.AnnotationLoadBalancerARN: "arn:lb/web",
				},
			},
		},
		&networkingv1.Ingress{ObjectMeta: metav1.ObjectMeta{Name: "internal", Namespace: "app"}},
		&corev1.Event{
			ObjectMeta:    metav1.ObjectMeta{Name: "pull-failed", Namespace: "app"},
			LastTimestamp: metav1.Now(),
		},
		&corev1.PersistentVolumeClaim{ObjectMeta: metav1.ObjectMeta{Name: "data", Namespace: "app"}},
		&appsv1.StatefulSet{ObjectMeta: metav1.ObjectMeta{Name: "db", Namespace: "app"}},
		&appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "app"}},
	)
}

func seedMetrics() *metricsfake.Clientset {
	return metricsfake.NewSimpleClientset(
		&metricsv1beta1.NodeMetrics{
			ObjectMeta: metav1.ObjectMeta{Name: "node-1"},
			Usage:      corev1.ResourceList{corev1.ResourceCPU: resource.MustParse("100m")},
		},
		&metricsv1beta1.PodMetrics{
			ObjectMeta: metav1.ObjectMeta{Name: "api-0", Namespace: "app"},
		},
	)
}

func readManifest(t *testing.T, manifestPath string) Manifest {
	t.Helper()
	b, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	manifest := Manifest{}
	require.NoError(t, yaml.Unmarshal(b, &manifest))
	return manifest
}

func listBundleFiles(t *testing.T, bundlePath string) []string {
	t.Helper()
	files := []string{}
	err := filepath.WalkDir(bundlePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(bundlePath, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(files)
	return files
}

func Test_RunFullSnapshot(t *testing.T) {
	clients := Clients{
		Kube:    seedCluster(),
		Metrics: seedMetrics(),
		LoadBalancers: &stubSource{
			groups: map[string][]lbhealth.TargetGroup{
				"arn:lb/web": {{ARN: "arn:tg/web", Name: "web-tg", Protocol: "HTTP", Port: 8080}},
			},
			health: map[string][]lbhealth.TargetHealth{
				"arn:tg/web": {{TargetID: "i-0abc", State: "healthy"}},
			},
		},
	}
	opts := Options{Namespace: "app", LogTail: 100, EventTail: 10, OutputRoot: t.TempDir()}

	summary, err := Run(context.Background(), clients, opts)
	require.NoError(t, err)

	files := listBundleFiles(t, summary.BundlePath)

	// every attempted capture left exactly one artifact
	for _, o := range summary.Outcomes {
		assert.Contains(t, files, o.Path)
	}

	// manifest lists exactly the artifact files present, itself excluded
	manifest := readManifest(t, summary.ManifestPath)
	withoutManifest := []string{}
	for _, f := range files {
		if f != ManifestFilename {
			withoutManifest = append(withoutManifest, f)
		}
	}
	assert.Equal(t, withoutManifest, manifest.Files)
	assert.NotContains(t, manifest.Files, ManifestFilename)
	assert.Equal(t, "app", manifest.Namespace)
	assert.Equal(t, int64(100), manifest.Options.LogTail)

	// restarted pod gets three artifacts, the stable pod two
	assert.Contains(t, files, "pods/api-0.json")
	assert.Contains(t, files, "pods/api-0-logs.txt")
	assert.Contains(t, files, "pods/api-0-previous-logs.txt")
	assert.Contains(t, files, "pods/web-0.json")
	assert.Contains(t, files, "pods/web-0-logs.txt")
	assert.NotContains(t, files, "pods/web-0-previous-logs.txt")

	// both ingresses get a describe and a manifest capture
	assert.Contains(t, files, "ingress/web.json")
	assert.Contains(t, files, "ingress/web.yaml")
	assert.Contains(t, files, "ingress/internal.json")
	assert.Contains(t, files, "ingress/internal.yaml")

	// only the annotated ingress produces load balancer artifacts
	assert.Contains(t, files, "lbhealth/web-target-groups.json")
	assert.Contains(t, files, "lbhealth/web-web-tg-health.json")
	assert.NotContains(t, files, "lbhealth/internal-target-groups.json")

	// metrics responded, so both usage captures exist
	assert.Contains(t, files, "metrics/node-usage.json")
	assert.Contains(t, files, "metrics/pod-usage.json")

	assert.Empty(t, summary.Failed())
	assert.Empty(t, summary.SkippedCapabilities)
}

func Test_RunEmptyNamespace(t *testing.T) {
	clients := Clients{
		Kube: testclient.NewSimpleClientset(
			&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "empty"}},
			&corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "node-1"}},
		),
	}
	opts := Options{Namespace: "empty", LogTail: 100, EventTail: 10, OutputRoot: t.TempDir()}

	summary, err := Run(context.Background(), clients, opts)
	require.NoError(t, err)

	files := listBundleFiles(t, summary.BundlePath)

	// cluster-wide captures are attempted even with nothing in the namespace
	for _, f := range []string{"nodes.json", "events.json", "pvcs.json", "statefulsets.json", "deployments.json", "pods.json", "services.json", "ingress.json", ManifestFilename} {
		assert.Contains(t, files, f)
	}

	// no metrics client configured: a single notice, zero usage artifacts
	require.Len(t, summary.SkippedCapabilities, 2) // metrics and load balancers
	for _, f := range files {
		assert.NotContains(t, f, "metrics/")
	}

	manifest := readManifest(t, summary.ManifestPath)
	assert.Len(t, manifest.Files, len(files)-1)
}

func Test_RunMetricsUnavailable(t *testing.T) {
	metricsClient := metricsfake.NewSimpleClientset()
	metricsClient.Fake.PrependReactor("list", "nodes", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("the server is currently unable to handle the request")
	})

	clients := Clients{Kube: seedCluster(), Metrics: metricsClient}
	opts := Options{Namespace: "app", LogTail: 100, EventTail: 10, OutputRoot: t.TempDir()}

	summary, err := Run(context.Background(), clients, opts)
	require.NoError(t, err)

	for _, f := range listBundleFiles(t, summary.BundlePath) {
		assert.NotContains(t, f, "metrics/")
	}
	assert.Contains(t, summary.SkippedCapabilities[0], "resource usage")
}

func Test_RunNamespaceNotFound(t *testing.T) {
	clients := Clients{Kube: testclient.NewSimpleClientset()}
	root := filepath.Join(t.TempDir(), "out")
	opts := Options{Namespace: "ghost", LogTail: 100, EventTail: 10, OutputRoot: root}

	_, err := Run(context.Background(), clients, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")

	// preflight failed, so nothing was written
	_, statErr := os.Stat(root)
	assert.True(t, os.IsNotExist(statErr))
}

func Test_RunsDoNotInterfere(t *testing.T) {
	clients := Clients{Kube: seedCluster()}
	opts := Options{Namespace: "app", LogTail: 100, EventTail: 10, OutputRoot: t.TempDir()}

	first, err := Run(context.Background(), clients, opts)
	require.NoError(t, err)

	second, err := Run(context.Background(), clients, opts)
	require.NoError(t, err)

	assert.NotEqual(t, first.BundlePath, second.BundlePath)

	// both bundles are complete and self-describing
	assert.FileExists(t, first.ManifestPath)
	assert.FileExists(t, second.ManifestPath)
}
