package mocks

//go:generate mockgen -destination=./mock_feed.go -package=mocks github.com/rxtech-lab/bitbroker/internal/backtest/engine Feed
//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/bitbroker/internal/backtest/engine/engine_v1/datasource DataSource
//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/rxtech-lab/bitbroker/internal/strategy Strategy
//go:generate mockgen -destination=./mock_act_policy.go -package=mocks github.com/rxtech-lab/bitbroker/internal/policy ActPolicy
