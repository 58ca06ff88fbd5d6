package httpapi

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/forecast-analytics/internal/store"
	"github.com/i474232898/forecast-analytics/internal/weather"
)

var validate = validator.New()

// ErrorHandler renders every error as a JSON body with a matching status code.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "forecast-analytics",
			"location": service.Config().Location.Name,
		})
	})

	v1 := app.Group("/api/v1/forecast")

	v1.Get("/latest", func(c *fiber.Ctx) error {
		loc, err := parseLocationQuery(c, service)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rec, err := service.GetLatest(loc.Name)
		if err != nil {
			return historyError(err, "no forecast record for requested location")
		}

		return c.JSON(rec)
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c, service); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.GetRange(req.Location.Name, req.From, req.To)
		if err != nil {
			return historyError(err, "no forecast records for requested range")
		}

		return c.JSON(fiber.Map{
			"location": req.Location.Name,
			"from":     req.From,
			"to":       req.To,
			"records":  records,
		})
	})

	v1.Post("/run", func(c *fiber.Ctx) error {
		res, err := service.Run(c.UserContext())
		if err != nil {
			body := fiber.Map{
				"error":   true,
				"message": err.Error(),
				"run_id":  res.RunID,
				"state":   res.State,
			}
			var stageErr *weather.StageError
			if errors.As(err, &stageErr) {
				body["stage"] = stageErr.Stage
			}
			return c.Status(fiber.StatusBadGateway).JSON(body)
		}

		return c.JSON(fiber.Map{
			"run_id": res.RunID,
			"state":  res.State,
			"record": res.Record,
		})
	})

	v1.Get("/chart", func(c *fiber.Ctx) error {
		path := service.Config().ChartPath
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return fiber.NewError(fiber.StatusNotFound, "no chart has been rendered yet")
		}
		c.Type("png")
		return c.SendFile(path)
	})
}

func historyError(err error, notFound string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, notFound)
	case errors.Is(err, weather.ErrHistoryDisabled):
		return fiber.NewError(fiber.StatusNotFound, "history is disabled")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast history")
	}
}

// locationQuery identifies a location by name; it defaults to the configured one.
type locationQuery struct {
	Name string `validate:"required,max=128"`
}

func parseLocationQuery(c *fiber.Ctx, service *weather.Service) (locationQuery, error) {
	q := locationQuery{Name: c.Query("location", service.Config().Location.Name)}

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location locationQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx, service *weather.Service) error {
	loc, err := parseLocationQuery(c, service)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
