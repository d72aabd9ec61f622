package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 业务指标，由 /metrics 暴露
var (
	// SessionsCreated 新建辅导场次数
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nindyamaya_sessions_created_total",
		Help: "Mentoring sessions created",
	})

	// SessionsCompleted 提交凭证完成的场次数
	SessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nindyamaya_sessions_completed_total",
		Help: "Mentoring sessions completed with proof",
	})

	// AttendanceConfirms 学员签到结果，result 为 ok 或拒绝原因
	AttendanceConfirms = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nindyamaya_attendance_confirms_total",
		Help: "Attendance confirmation attempts by result",
	}, []string{"result"})

	// UploadBytes 上传文件大小分布
	UploadBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nindyamaya_upload_bytes",
		Help:    "Size of accepted uploads",
		Buckets: prometheus.ExponentialBuckets(64<<10, 4, 8),
	}, []string{"category"})

	// HTTPRequests 按路由统计的请求数
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nindyamaya_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	// HTTPDuration 按路由统计的请求耗时
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nindyamaya_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)
