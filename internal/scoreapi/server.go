// Package scoreapi serves cross-validated similarity evaluations over HTTP:
// a caller posts a candidate and a reference assembly and receives the raw
// (un-ceiled) score of the linear-predictivity metric.
package scoreapi

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/neuralign-labs/neuralign/internal/benchmark"
	"github.com/neuralign-labs/neuralign/internal/config"
	"github.com/neuralign-labs/neuralign/pkg/metric"
)

type Server struct {
	app *fiber.App
	cfg *config.AppConfig
}

func NewServer(cfg *config.AppConfig) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:   cfg.BodySizeLimit,
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})

	app.Use(recover.New())
	app.Use(ZstdMiddleware(nil))

	s := &Server{app: app, cfg: cfg}
	app.Get("/health", s.handleHealth)
	app.Post("/evaluate", s.handleEvaluate)
	return s
}

// App exposes the fiber app, for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(okResponse("ok"))
}

func (s *Server) handleEvaluate(c *fiber.Ctx) error {
	var req EvaluateRequest
	if err := sonic.Unmarshal(c.Body(), &req); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal evaluate request")
		return c.Status(fiber.StatusBadRequest).JSON(errResponse(err))
	}

	source, err := req.Source.Unpack()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errResponse(err))
	}
	target, err := req.Target.Unpack()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errResponse(err))
	}

	opts := s.engineOptions(req.Options)
	evaluator := metric.NewParametricEvaluator(benchmark.NewLinearPredictivity(), nil)
	similarity := metric.NewCrossValidationSimilarity(evaluator, opts...)

	started := time.Now()
	score, err := similarity.Evaluate(source, target)
	if err != nil {
		log.Error().Err(err).Msg("evaluation failed")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errResponse(err))
	}
	center, err := score.CenterValue()
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errResponse(err))
	}
	spread, err := score.ErrorValue()
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errResponse(err))
	}
	log.Info().
		Float64("center", center).
		Float64("error", spread).
		Dur("elapsed", time.Since(started)).
		Msg("evaluation complete")

	return c.Status(fiber.StatusOK).JSON(okResponse(EvaluateResponse{
		Center:    center,
		Error:     spread,
		PerSplit:  score.Values.Values(),
		SplitDims: score.Values.Dims(),
	}))
}

func (s *Server) engineOptions(opts EvaluateOptions) []metric.Option {
	splits := s.cfg.Splits
	if opts.Splits > 0 {
		splits = opts.Splits
	}
	trainRatio := s.cfg.TrainRatio
	if opts.TrainRatio > 0 {
		trainRatio = opts.TrainRatio
	}
	seed := s.cfg.Seed
	if opts.Seed != 0 {
		seed = opts.Seed
	}
	parallelism := s.cfg.Parallelism
	if opts.Parallelism > 0 {
		parallelism = opts.Parallelism
	}
	return []metric.Option{
		metric.WithSplits(splits),
		metric.WithTrainRatio(trainRatio),
		metric.WithSeed(seed),
		metric.WithParallelism(parallelism),
	}
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.cfg.Address, s.cfg.Port)
	go func() {
		if err := s.app.Listen(address); err != nil {
			log.Error().Err(err).Msg("server listen failed")
		}
	}()
	<-ctx.Done()
	return s.app.Shutdown()
}
