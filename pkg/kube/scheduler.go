package kube

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/utils/ptr"

	"github.com/quatton/aimless/pkg/aerr"
	"github.com/quatton/aimless/pkg/alog"
	"github.com/quatton/aimless/pkg/sched"
)

// Config describes where and how jobs run in the cluster.
type Config struct {
	Kubeconfig     string `mapstructure:"kubeconfig"`
	Namespace      string `mapstructure:"namespace"`
	QueueName      string `mapstructure:"queue_name"`
	Image          string `mapstructure:"image"`
	ServiceAccount string `mapstructure:"service_account"`
	// WorkClaim is a PVC holding the working directory, mounted at WorkDir.
	WorkClaim string `mapstructure:"work_claim"`
	WorkDir   string `mapstructure:"work_dir"`
	Memory    string `mapstructure:"memory"`
}

// Scheduler submits jobs as batch/v1 Jobs. Numeric job ids are kept in a
// label so Stat can answer by id.
type Scheduler struct {
	jobs *JobManager
	cfg  Config
	log  *alog.Logger
	now  func() time.Time

	mu     sync.Mutex
	lastID sched.JobID
}

var _ sched.Scheduler = (*Scheduler)(nil)

// Option configures a Scheduler
type Option func(*Scheduler)

func WithLogger(log *alog.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock sets the clock used for remaining walltime.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func NewScheduler(client kubernetes.Interface, cfg Config, opts ...Option) *Scheduler {
	if cfg.Namespace == "" {
		cfg.Namespace = "default"
	}
	s := &Scheduler{
		jobs: NewJobManager(client, cfg.Namespace),
		cfg:  cfg,
		log:  alog.NewDiscard(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit creates the Job running job.Contents under /bin/sh.
func (s *Scheduler) Submit(ctx context.Context, job *sched.Job) (sched.JobID, error) {
	id, err := s.nextID(ctx)
	if err != nil {
		return 0, aerr.Newf(aerr.CodeSubmission, "allocate id for job %s: %w", job.Name, err)
	}
	spec, err := s.build(job, id)
	if err != nil {
		return 0, err
	}
	created, err := s.jobs.CreateJob(ctx, spec)
	if err != nil {
		return 0, aerr.Newf(aerr.CodeSubmission, "create job %s: %w", job.Name, err)
	}
	s.log.Debug("Created job", "id", id, "k8s_job", created.Name, "namespace", s.cfg.Namespace)
	return id, nil
}

// nextID continues after the highest id seen in the namespace.
func (s *Scheduler) nextID(ctx context.Context) (sched.JobID, error) {
	list, err := s.jobs.ListJobs(ctx, ManagedLabel+"=true")
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range list.Items {
		if id, ok := labelID(&list.Items[i]); ok && id > s.lastID {
			s.lastID = id
		}
	}
	s.lastID++
	return s.lastID, nil
}

func (s *Scheduler) build(job *sched.Job, id sched.JobID) (*batchv1.Job, error) {
	labels := map[string]string{
		ManagedLabel: "true",
		JobIDLabel:   strconv.Itoa(int(id)),
	}
	if s.cfg.QueueName != "" {
		labels[KueueQueueLabel] = s.cfg.QueueName
	}

	container := corev1.Container{
		Name:       containerName,
		Image:      s.cfg.Image,
		Command:    []string{"/bin/sh", "-c", job.Contents},
		WorkingDir: s.cfg.WorkDir,
		Env: []corev1.EnvVar{
			{Name: "AIMLESS_JOB_NAME", Value: job.Name},
			{Name: "PBS_O_WORKDIR", Value: s.cfg.WorkDir},
		},
		Resources: s.resources(job),
	}
	pod := corev1.PodSpec{
		RestartPolicy:      corev1.RestartPolicyNever,
		ServiceAccountName: s.cfg.ServiceAccount,
		Containers:         []corev1.Container{container},
	}
	if s.cfg.WorkClaim != "" {
		pod.Volumes = []corev1.Volume{{
			Name: workVolumeName,
			VolumeSource: corev1.VolumeSource{
				PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{ClaimName: s.cfg.WorkClaim},
			},
		}}
		pod.Containers[0].VolumeMounts = []corev1.VolumeMount{{Name: workVolumeName, MountPath: s.cfg.WorkDir}}
	}

	spec := batchv1.JobSpec{
		Parallelism:  ptr.To(int32(1)),
		Completions:  ptr.To(int32(1)),
		BackoffLimit: ptr.To(int32(0)),
		// Kueue admits suspended jobs from its queue.
		Suspend:  ptr.To(s.cfg.QueueName != ""),
		Template: corev1.PodTemplateSpec{ObjectMeta: metav1.ObjectMeta{Labels: map[string]string{ManagedLabel: "true"}}, Spec: pod},
	}
	if job.Walltime != "" {
		d, err := ParseWalltime(job.Walltime)
		if err != nil {
			return nil, aerr.Newf(aerr.CodeSubmission, "job %s: %w", job.Name, err)
		}
		spec.ActiveDeadlineSeconds = ptr.To(int64(d / time.Second))
	}

	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:        JobName(id, job.Name),
			Labels:      labels,
			Annotations: map[string]string{JobNameAnnot: job.Name, ownerAnnot: s.cfg.ServiceAccount},
		},
		Spec: spec,
	}, nil
}

func (s *Scheduler) resources(job *sched.Job) corev1.ResourceRequirements {
	cpus := job.NumCPUs
	if cpus <= 0 {
		cpus = 1
	}
	if job.NumNodes > 1 {
		cpus *= job.NumNodes
	}
	req := corev1.ResourceList{corev1.ResourceCPU: *resource.NewQuantity(int64(cpus), resource.DecimalSI)}
	if s.cfg.Memory != "" {
		if q, err := resource.ParseQuantity(s.cfg.Memory); err == nil {
			req[corev1.ResourceMemory] = q
		} else {
			s.log.Warn("Ignoring bad memory request", "memory", s.cfg.Memory, "error", err)
		}
	}
	return corev1.ResourceRequirements{Requests: req}
}

// Stat reports the managed jobs among ids, or every managed job when ids
// is empty. Jobs that were deleted are simply absent.
func (s *Scheduler) Stat(ctx context.Context, ids []sched.JobID) (map[sched.JobID]*sched.Status, error) {
	list, err := s.jobs.ListJobs(ctx, ManagedLabel+"=true")
	if err != nil {
		return nil, aerr.Newf(aerr.CodeStatusParsing, "list jobs: %w", err)
	}
	want := make(map[sched.JobID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[sched.JobID]*sched.Status)
	now := s.now()
	for i := range list.Items {
		job := &list.Items[i]
		id, ok := labelID(job)
		if !ok || (len(want) > 0 && !want[id]) {
			continue
		}
		out[id] = s.status(job, id, now)
	}
	return out, nil
}

func (s *Scheduler) status(job *batchv1.Job, id sched.JobID, now time.Time) *sched.Status {
	st := &sched.Status{
		ID:      id,
		Name:    job.Annotations[JobNameAnnot],
		Owner:   job.Annotations[ownerAnnot],
		State:   JobState(job),
		Queue:   job.Labels[KueueQueueLabel],
		Created: job.CreationTimestamp.Time,
		Queued:  job.CreationTimestamp.Time,
	}
	if job.Status.StartTime != nil {
		st.Started = job.Status.StartTime.Time
		if d := job.Spec.ActiveDeadlineSeconds; d != nil && !st.State.Terminal() {
			left := time.Duration(*d)*time.Second - now.Sub(st.Started)
			st.Remaining = max(left, 0)
		}
	}
	return st
}

// JobState maps Job conditions onto scheduler states. Failed and
// complete jobs are both completed.
func JobState(job *batchv1.Job) sched.State {
	for _, c := range job.Status.Conditions {
		if c.Status != corev1.ConditionTrue {
			continue
		}
		switch c.Type {
		case batchv1.JobComplete, batchv1.JobFailed:
			return sched.StateCompleted
		case batchv1.JobFailureTarget, batchv1.JobSuccessCriteriaMet:
			return sched.StateExiting
		}
	}
	if job.Spec.Suspend != nil && *job.Spec.Suspend {
		return sched.StateQueued
	}
	if job.Status.Active > 0 {
		return sched.StateRunning
	}
	return sched.StateQueued
}

func labelID(job *batchv1.Job) (sched.JobID, bool) {
	n, err := strconv.Atoi(job.Labels[JobIDLabel])
	if err != nil || n <= 0 {
		return 0, false
	}
	return sched.JobID(n), true
}

var nonDNS = regexp.MustCompile(`[^a-z0-9-]+`)

// JobName builds a DNS-1123 Job name from the id and the aimless job name.
func JobName(id sched.JobID, name string) string {
	base := strings.Trim(nonDNS.ReplaceAllString(strings.ToLower(name), "-"), "-")
	out := fmt.Sprintf("aimless-%d", id)
	if base != "" {
		out += "-" + base
	}
	if len(out) > 63 {
		out = out[:63]
	}
	return strings.TrimRight(out, "-")
}

// ParseWalltime reads [[HH:]MM:]SS; hours may exceed 24.
func ParseWalltime(raw string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("bad walltime %q", raw)
	}
	var total time.Duration
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("bad walltime %q", raw)
		}
		total = total*60 + time.Duration(n)
	}
	return total * time.Second, nil
}
