package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"path" // relative bundle paths always use forward slashes, also on windows
	"time"

	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/klog/v2"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/kubesnap/kubesnap/pkg/collect"
	"github.com/kubesnap/kubesnap/pkg/k8sutil"
	"github.com/kubesnap/kubesnap/pkg/lbhealth"
	"github.com/kubesnap/kubesnap/pkg/version"
)

// Clients are the query interfaces a run reads from. Metrics and
// LoadBalancers are optional capabilities; a nil Metrics client or an
// unavailable load balancer source skips those captures with a single
// notice.
type Clients struct {
	Kube          kubernetes.Interface
	Metrics       metricsclient.Interface
	LoadBalancers lbhealth.Source
}

// Summary is what a completed run reports back: where the bundle went and
// how every capture fared. Individual capture failures live here and in the
// artifact files, never in the process exit code.
type Summary struct {
	BundlePath          string
	ManifestPath        string
	Outcomes            []collect.CaptureOutcome
	SkippedCapabilities []string
}

// Failed returns the outcomes of captures whose query did not succeed.
func (s *Summary) Failed() []collect.CaptureOutcome {
	failed := []collect.CaptureOutcome{}
	for _, o := range s.Outcomes {
		if !o.OK {
			failed = append(failed, o)
		}
	}
	return failed
}

type runner struct {
	clients Clients
	run     *RunContext
	output  collect.CollectorResult
	summary *Summary
}

// Run takes one snapshot of the target namespace. The two preflight checks
// are the only fatal conditions: once they pass, the run always reaches the
// manifest no matter how many individual captures fail. Captures execute
// strictly sequentially in category order, then discovery order, so the same
// cluster state always yields the same file set.
func Run(ctx context.Context, clients Clients, opts Options) (*Summary, error) {
	if err := k8sutil.CheckAPIServer(clients.Kube); err != nil {
		return nil, err
	}
	if err := k8sutil.CheckNamespaceExists(ctx, clients.Kube, opts.Namespace); err != nil {
		return nil, err
	}

	run := NewRunContext(opts, time.Now())
	if err := run.ensureBundleDir(); err != nil {
		return nil, err
	}

	klog.V(1).Infof("Writing snapshot of namespace %q to %s", opts.Namespace, run.BundlePath)

	r := &runner{
		clients: clients,
		run:     run,
		output:  collect.NewResult(),
		summary: &Summary{BundlePath: run.BundlePath},
	}

	r.captureCluster(ctx)
	pods := r.capturePods(ctx)
	r.captureServices(ctx)
	ingresses := r.captureIngresses(ctx)
	r.captureMetrics(ctx, len(pods) > 0)
	r.captureLoadBalancerHealth(ctx, ingresses)
	r.captureVersion(ctx)

	manifestPath, err := writeManifest(run, r.output, r.summary.SkippedCapabilities)
	if err != nil {
		return nil, err
	}
	r.summary.ManifestPath = manifestPath

	return r.summary, nil
}

// capture runs one task and records its outcome. Failures are recorded as
// the artifact's content and reported in the summary only.
func (r *runner) capture(ctx context.Context, label string, relPath string, query func(context.Context) ([]byte, error)) collect.CaptureOutcome {
	task := collect.Capture{Label: label, Path: relPath, Query: query}
	outcome := task.Run(ctx, r.run.BundlePath, r.output)
	r.summary.Outcomes = append(r.summary.Outcomes, outcome)
	return outcome
}

func (r *runner) skipCapability(name string, reason string) {
	klog.Infof("Skipping %s: %s", name, reason)
	r.summary.SkippedCapabilities = append(r.summary.SkippedCapabilities, fmt.Sprintf("%s (%s)", name, reason))
}

func (r *runner) captureCluster(ctx context.Context) {
	kube := r.clients.Kube
	ns := r.run.Namespace

	r.capture(ctx, "node list", "nodes.json", func(ctx context.Context) ([]byte, error) {
		return collect.Nodes(ctx, kube)
	})
	r.capture(ctx, "event tail", "events.json", func(ctx context.Context) ([]byte, error) {
		return collect.Events(ctx, kube, ns, r.run.EventTail)
	})
	r.capture(ctx, "persistent volume claim list", "pvcs.json", func(ctx context.Context) ([]byte, error) {
		return collect.PersistentVolumeClaims(ctx, kube, ns)
	})
	r.capture(ctx, "statefulset list", "statefulsets.json", func(ctx context.Context) ([]byte, error) {
		return collect.StatefulSets(ctx, kube, ns)
	})
	r.capture(ctx, "deployment list", "deployments.json", func(ctx context.Context) ([]byte, error) {
		return collect.Deployments(ctx, kube, ns)
	})
}

func (r *runner) capturePods(ctx context.Context) []corev1.Pod {
	kube := r.clients.Kube
	ns := r.run.Namespace

	podList, data, err := collect.Pods(ctx, kube, ns)
	r.capture(ctx, "pod list", "pods.json", collect.Prefetched(data, err))
	if err != nil {
		return nil
	}
	if len(podList.Items) == 0 {
		klog.V(1).Infof("No pods found in namespace %q", ns)
		return nil
	}

	for _, pod := range podList.Items {
		name := pod.Name

		r.capture(ctx, fmt.Sprintf("pod %s", name), path.Join("pods", name+".json"), func(ctx context.Context) ([]byte, error) {
			return collect.DescribePod(ctx, kube, ns, name)
		})
		r.capture(ctx, fmt.Sprintf("logs of pod %s", name), path.Join("pods", name+"-logs.txt"), func(ctx context.Context) ([]byte, error) {
			return collect.PodLogs(ctx, kube, ns, name, r.run.LogTail, false)
		})

		// Evaluated per pod from the already-listed pod status, never
		// globally: restart state differs pod to pod.
		if collect.NeedsPreviousLogs(pod) {
			r.capture(ctx, fmt.Sprintf("previous logs of pod %s", name), path.Join("pods", name+"-previous-logs.txt"), func(ctx context.Context) ([]byte, error) {
				return collect.PodLogs(ctx, kube, ns, name, r.run.LogTail, true)
			})
		}
	}

	return podList.Items
}

func (r *runner) captureServices(ctx context.Context) {
	kube := r.clients.Kube
	ns := r.run.Namespace

	serviceList, data, err := collect.Services(ctx, kube, ns)
	r.capture(ctx, "service list", "services.json", collect.Prefetched(data, err))
	if err != nil {
		return
	}
	if len(serviceList.Items) == 0 {
		klog.V(1).Infof("No services found in namespace %q", ns)
		return
	}

	for _, svc := range serviceList.Items {
		name := svc.Name
		r.capture(ctx, fmt.Sprintf("service %s", name), path.Join("services", name+".json"), func(ctx context.Context) ([]byte, error) {
			return collect.DescribeService(ctx, kube, ns, name)
		})
	}
}

func (r *runner) captureIngresses(ctx context.Context) []networkingv1.Ingress {
	kube := r.clients.Kube
	ns := r.run.Namespace

	ingressList, data, err := collect.Ingresses(ctx, kube, ns)
	r.capture(ctx, "ingress list", "ingress.json", collect.Prefetched(data, err))
	if err != nil {
		return nil
	}
	if len(ingressList.Items) == 0 {
		klog.V(1).Infof("No ingresses found in namespace %q", ns)
		return nil
	}

	for _, ing := range ingressList.Items {
		name := ing.Name
		r.capture(ctx, fmt.Sprintf("ingress %s", name), path.Join("ingress", name+".json"), func(ctx context.Context) ([]byte, error) {
			return collect.DescribeIngress(ctx, kube, ns, name)
		})
		r.capture(ctx, fmt.Sprintf("manifest of ingress %s", name), path.Join("ingress", name+".yaml"), func(ctx context.Context) ([]byte, error) {
			return collect.IngressManifest(ctx, kube, ns, name)
		})
	}

	return ingressList.Items
}

func (r *runner) captureMetrics(ctx context.Context, havePods bool) {
	if r.clients.Metrics == nil {
		r.skipCapability("resource usage captures", "no metrics client configured")
		return
	}
	if !collect.MetricsAvailable(ctx, r.clients.Metrics) {
		r.skipCapability("resource usage captures", "metrics API did not respond")
		return
	}

	r.capture(ctx, "node resource usage", "metrics/node-usage.json", func(ctx context.Context) ([]byte, error) {
		return collect.NodeUsage(ctx, r.clients.Metrics)
	})
	if havePods {
		r.capture(ctx, "pod resource usage", "metrics/pod-usage.json", func(ctx context.Context) ([]byte, error) {
			return collect.PodUsage(ctx, r.clients.Metrics, r.run.Namespace)
		})
	}
}

func (r *runner) captureLoadBalancerHealth(ctx context.Context, ingresses []networkingv1.Ingress) {
	src := r.clients.LoadBalancers
	if src == nil || !src.Available() {
		r.skipCapability("load balancer health captures", "no cloud credentials available")
		return
	}

	for _, ing := range ingresses {
		arn, ok := lbhealth.LoadBalancerARN(ing.Annotations)
		if !ok {
			// Not every ingress is backed by a recognized load balancer.
			klog.V(2).Infof("Ingress %s carries no load balancer annotation", ing.Name)
			continue
		}

		groups, err := src.TargetGroups(ctx, arn)
		r.capture(ctx, fmt.Sprintf("target groups of ingress %s", ing.Name), path.Join("lbhealth", ing.Name+"-target-groups.json"), func(context.Context) ([]byte, error) {
			if err != nil {
				return nil, err
			}
			return json.MarshalIndent(groups, "", "  ")
		})
		if err != nil {
			continue
		}

		for _, tg := range groups {
			tg := tg
			r.capture(ctx, fmt.Sprintf("target health of %s", tg.Name), path.Join("lbhealth", fmt.Sprintf("%s-%s-health.json", ing.Name, tg.Name)), func(ctx context.Context) ([]byte, error) {
				health, err := src.TargetHealth(ctx, tg.ARN)
				if err != nil {
					return nil, err
				}
				return json.MarshalIndent(health, "", "  ")
			})
		}
	}
}

func (r *runner) captureVersion(ctx context.Context) {
	r.capture(ctx, "kubesnap version", "kubesnap-version.yaml", func(context.Context) ([]byte, error) {
		b, err := version.GetVersionFile()
		return b, errors.Wrap(err, "failed to render version file")
	})
}
