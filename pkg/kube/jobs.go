package kube

import (
	"context"
	"fmt"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const (
	// KueueQueueLabel is the label key for Kueue queue name
	KueueQueueLabel = "kueue.x-k8s.io/queue-name"

	ManagedLabel   = "aimless.io/managed"
	JobIDLabel     = "aimless.io/job-id"
	JobNameAnnot   = "aimless.io/job-name"
	ownerAnnot     = "aimless.io/owner"
	containerName  = "md"
	workVolumeName = "work"
)

// JobManager handles Kubernetes Job operations in one namespace.
type JobManager struct {
	client    kubernetes.Interface
	namespace string
}

func NewJobManager(client kubernetes.Interface, namespace string) *JobManager {
	return &JobManager{
		client:    client,
		namespace: namespace,
	}
}

func (jm *JobManager) CreateJob(ctx context.Context, job *batchv1.Job) (*batchv1.Job, error) {
	return jm.client.BatchV1().Jobs(jm.namespace).Create(ctx, job, metav1.CreateOptions{})
}

func (jm *JobManager) GetJob(ctx context.Context, name string) (*batchv1.Job, error) {
	return jm.client.BatchV1().Jobs(jm.namespace).Get(ctx, name, metav1.GetOptions{})
}

// DeleteJob deletes a Job and its pods.
func (jm *JobManager) DeleteJob(ctx context.Context, name string) error {
	deletePolicy := metav1.DeletePropagationForeground
	return jm.client.BatchV1().Jobs(jm.namespace).Delete(ctx, name, metav1.DeleteOptions{
		PropagationPolicy: &deletePolicy,
	})
}

func (jm *JobManager) ListJobs(ctx context.Context, labelSelector string) (*batchv1.JobList, error) {
	return jm.client.BatchV1().Jobs(jm.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
}

// GetJobPods returns all pods for a given job
func (jm *JobManager) GetJobPods(ctx context.Context, jobName string) (*corev1.PodList, error) {
	return jm.client.CoreV1().Pods(jm.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: fmt.Sprintf("job-name=%s", jobName),
	})
}
