package client

import (
	"context"
	"time"

	"github.com/go-kit/log"
	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/timeout"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dzoniops/booking-service/models"
	"github.com/dzoniops/booking-service/rpc"
	"github.com/dzoniops/booking-service/utils"
)

const defaultTimeout = 5 * time.Second

type BookingClient struct {
	conn grpc.ClientConnInterface
}

func NewBookingClient(conn grpc.ClientConnInterface) *BookingClient {
	return &BookingClient{conn: conn}
}

// Dial connects to a booking service with tracing, client metrics and
// request logging. Metrics are registered on reg.
func Dial(url string, logger log.Logger, reg prometheus.Registerer, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	rpcLogger := log.With(logger, "service", "gRPC/client", "component", "booking-client")

	clMetrics := grpcprom.NewClientMetrics(
		grpcprom.WithClientHandlingTimeHistogram(
			grpcprom.WithHistogramBuckets(
				[]float64{0.001, 0.01, 0.1, 0.3, 0.6, 1, 3, 6, 9, 20, 30, 60, 90, 120},
			),
		),
	)
	if err := reg.Register(clMetrics); err != nil {
		return nil, err
	}
	exemplarFromContext := func(ctx context.Context) prometheus.Labels {
		if span := trace.SpanContextFromContext(ctx); span.IsSampled() {
			return prometheus.Labels{"traceID": span.TraceID().String()}
		}
		return nil
	}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(
			timeout.UnaryClientInterceptor(defaultTimeout),
			otelgrpc.UnaryClientInterceptor(),
			clMetrics.UnaryClientInterceptor(grpcprom.WithExemplarFromContext(exemplarFromContext)),
			logging.UnaryClientInterceptor(
				utils.InterceptorLogger(rpcLogger),
				logging.WithFieldsFromContext(utils.LogTraceID),
			),
		),
	}, opts...)
	return grpc.Dial(url, opts...)
}

func (c *BookingClient) call(ctx context.Context, method string, req, res any) error {
	in, err := rpc.Encode(req)
	if err != nil {
		return err
	}
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, rpc.FullMethod(method), in, out); err != nil {
		return err
	}
	return rpc.Decode(out, res)
}

func (c *BookingClient) SubmitBooking(
	ctx context.Context,
	form models.BookingForm,
) (*rpc.SubmitBookingResponse, error) {
	res := &rpc.SubmitBookingResponse{}
	if err := c.call(ctx, rpc.MethodSubmitBooking, form, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *BookingClient) ListCatalog(
	ctx context.Context,
	kind models.Kind,
	destinationID string,
) ([]models.CatalogItem, error) {
	res := &rpc.ListCatalogResponse{}
	req := rpc.ListCatalogRequest{Kind: string(kind), DestinationID: destinationID}
	if err := c.call(ctx, rpc.MethodListCatalog, req, res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (c *BookingClient) GetCatalogItem(ctx context.Context, kind models.Kind, id string) (*models.CatalogItem, error) {
	res := &models.CatalogItem{}
	req := rpc.GetCatalogItemRequest{Kind: string(kind), ID: id}
	if err := c.call(ctx, rpc.MethodGetCatalogItem, req, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *BookingClient) ListDestinations(ctx context.Context) ([]models.Destination, error) {
	res := &rpc.ListDestinationsResponse{}
	if err := c.call(ctx, rpc.MethodListDestinations, struct{}{}, res); err != nil {
		return nil, err
	}
	return res.Destinations, nil
}

func (c *BookingClient) GetDestination(ctx context.Context, id string) (*models.Destination, error) {
	res := &models.Destination{}
	if err := c.call(ctx, rpc.MethodGetDestination, rpc.GetDestinationRequest{ID: id}, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *BookingClient) CreateDestination(ctx context.Context, d models.Destination) (*models.Destination, error) {
	res := &models.Destination{}
	if err := c.call(ctx, rpc.MethodCreateDestination, d, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *BookingClient) CreateCatalogItem(ctx context.Context, item models.CatalogItem) (*models.CatalogItem, error) {
	res := &models.CatalogItem{}
	if err := c.call(ctx, rpc.MethodCreateCatalogItem, item, res); err != nil {
		return nil, err
	}
	return res, nil
}

// FieldViolation returns the form field named by an InvalidArgument error.
func FieldViolation(err error) (string, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return "", false
	}
	for _, d := range st.Details() {
		if br, ok := d.(*errdetails.BadRequest); ok && len(br.FieldViolations) > 0 {
			return br.FieldViolations[0].Field, true
		}
	}
	return "", false
}
