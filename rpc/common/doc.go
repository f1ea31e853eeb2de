// Package common holds the types shared by the rpc server, client and transports.
//
//   - Message: the single request/response structure of the rpc protocol. Factory
//     functions exist for every request and response of the store operations.
//     Responses of failed operations carry the store.RetCode and the message of
//     the store error, so clients can rebuild a *store.Error.
//
//   - MessageType: the operation of a message (hset, hsetEIfUnset, hdel, hget,
//     hgetAll, geoAdd, geoRemove, geoRadius, dbInfo plus success and error).
//
//   - ServerConfig and ClientConfig: node and client settings. ServerConfig
//     describes the shards of a node (lstore, replica or dstore) and converts
//     itself to the dragonboat configuration for raft shards.
//
//   - Logger: a dragonboat logger.ILogger with the format
//     "LEVEL | name | message". InitLoggers installs it and sets the level of
//     all loggers, dragonboat's own loggers are capped at warning.
package common
